package network

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
)

// -----------------------------------------------------------------------------

type NetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Get performs a single GET request. Failures surface to the caller
// immediately; batch-level isolation is handled one layer up.
func (nm *NetworkManager) Get(urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	req, err := http.NewRequest("GET", reqUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.Config.Network.UserAgent)

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		nm.Logger.Warning("Request to %s returned status %d", reqUrl.Host, resp.StatusCode)
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, reqUrl.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

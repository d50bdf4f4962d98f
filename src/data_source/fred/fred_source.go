package fred

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"finance-pipeline/src/interfaces"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
)

// SourceName is the tag written to stored rows and the call log.
const SourceName = "FRED"

// CSV endpoint, no API key required for basic access.
const graphURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

// Common FRED series IDs.
const (
	FedFundsRate   = "DFF"
	Unemployment   = "UNRATE"
	GDP            = "GDP"
	CPI            = "CPIAUCSL"
	Treasury10Y    = "DGS10"
	Treasury2Y     = "DGS2"
	SP500          = "SP500"
	VIX            = "VIXCLS"
	SavingsRate    = "PSAVERT"
	IndustrialProd = "INDPRO"
)

// DefaultIndicators is the series set fetched when none are configured.
var DefaultIndicators = []string{
	FedFundsRate, Unemployment, GDP, CPI, Treasury10Y,
	Treasury2Y, SP500, VIX, SavingsRate, IndustrialProd,
}

// -----------------------------------------------------------------------------

// FredSource fetches macro indicator series from the FRED CSV endpoint.
type FredSource struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFredSource(netMgr interfaces.INetworkManager, log *logger.Logger) *FredSource {
	return &FredSource{
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *FredSource) Name() string {
	return SourceName
}

// -----------------------------------------------------------------------------

// Series fetches raw observations for an indicator. FRED reports missing
// values as "."; those come back with a nil Value so the ingester can skip
// them.
func (s *FredSource) Series(indicator string) ([]models.MMacroPoint, error) {
	respBytes, err := s.Network.Get(graphURL, map[string]string{"id": indicator})
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", indicator, err)
	}

	return s.parseCSV(indicator, respBytes)
}

// -----------------------------------------------------------------------------

func (s *FredSource) parseCSV(indicator string, data []byte) ([]models.MMacroPoint, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	// Header row: DATE,<SERIES>
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read csv header for %s: %w", indicator, err)
	}

	var points []models.MMacroPoint

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv parse error for %s: %w", indicator, err)
		}
		if len(record) < 2 {
			continue
		}

		date, err := time.Parse(models.DateLayout, record[0])
		if err != nil {
			continue
		}

		point := models.MMacroPoint{Date: date}

		if record[1] != "." && record[1] != "" {
			if v, err := strconv.ParseFloat(record[1], 64); err == nil {
				point.Value = &v
			}
		}

		points = append(points, point)
	}

	s.Logger.Info("Fetched %d observations for %s", len(points), indicator)
	return points, nil
}

package fred

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
)

type fakeNetwork struct {
	body   []byte
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(url string, params map[string]string) ([]byte, error) {
	f.url = url
	f.params = params
	return f.body, f.err
}

func newTestSource(body string) (*FredSource, *fakeNetwork) {
	net := &fakeNetwork{body: []byte(body)}
	return NewFredSource(net, logger.NewLogger("ERROR", "test")), net
}

func TestSeriesParsesObservations(t *testing.T) {
	body := "DATE,DFF\n2024-01-01,5.33\n2024-01-02,5.33\n2024-01-03,5.32\n"
	source, net := newTestSource(body)

	points, err := source.Series("DFF")
	require.NoError(t, err)

	assert.Equal(t, graphURL, net.url)
	assert.Equal(t, "DFF", net.params["id"])

	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-01", points[0].Date.Format(models.DateLayout))
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 5.33, *points[0].Value)
}

func TestSeriesMissingValuesComeBackNil(t *testing.T) {
	// FRED encodes missing observations as a dot.
	body := "DATE,DGS10\n2024-01-01,.\n2024-01-02,3.95\n2024-01-03,\n"
	source, _ := newTestSource(body)

	points, err := source.Series("DGS10")
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Nil(t, points[0].Value)
	require.NotNil(t, points[1].Value)
	assert.Equal(t, 3.95, *points[1].Value)
	assert.Nil(t, points[2].Value)
}

func TestSeriesSkipsMalformedRows(t *testing.T) {
	body := "DATE,UNRATE\nnot-a-date,3.7\n2024-01-01,3.7\n"
	source, _ := newTestSource(body)

	points, err := source.Series("UNRATE")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-01", points[0].Date.Format(models.DateLayout))
}

func TestSeriesNetworkError(t *testing.T) {
	source, net := newTestSource("")
	net.err = errors.New("connection refused")

	_, err := source.Series("DFF")
	assert.ErrorContains(t, err, "network error")
}

package outwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrew/matchengine/schema"
)

func TestWriteMetricsTable(t *testing.T) {
	metrics := []schema.ContractorMetrics{
		{
			ContractorID: 7,
			Scores: map[schema.MetricType]float64{
				schema.MetricReliability: 0.9,
				schema.MetricWorkload:    0.8,
				schema.MetricQuality:     0.7,
				schema.MetricPrice:       0.6,
			},
		},
	}

	var buf bytes.Buffer
	err := writeMetricsTable(&buf, metrics, 80*time.Millisecond, createFormatter(2))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "7")
	assert.Contains(t, output, "0.90")
	assert.Contains(t, output, "0.60")
	assert.Contains(t, output, "Swept 1 contractors in 80ms")
}

func TestWriteMetricsCSV(t *testing.T) {
	metrics := []schema.ContractorMetrics{
		{
			ContractorID: 7,
			Scores: map[schema.MetricType]float64{
				schema.MetricReliability: 0.9,
				schema.MetricWorkload:    0.8,
				schema.MetricQuality:     0.7,
				schema.MetricPrice:       0.6,
			},
		},
		{
			ContractorID: 9,
			Scores: map[schema.MetricType]float64{
				schema.MetricReliability: 0.2,
				schema.MetricWorkload:    1.0,
				schema.MetricQuality:     0.41,
				schema.MetricPrice:       0.5,
			},
		},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMetricsCSV(w, metrics, createFormatter(2))
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	// Columns follow the stable metric order
	assert.Equal(t, "contractor_id,reliability,workload,quality,price", lines[0])
	assert.Equal(t, "7,0.90,0.80,0.70,0.60", lines[1])
	assert.Equal(t, "9,0.20,1.00,0.41,0.50", lines[2])
}

func TestWriteMetricsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMetricsCSV(w, nil, createFormatter(2))
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "contractor_id")
}

func TestWriteStatusText(t *testing.T) {
	status := schema.StoreStatus{
		Backend:   "sqlite",
		Connected: true,
		TableSizes: map[string]int64{
			"jobs":        3,
			"contractors": 7,
			"match_runs":  1,
		},
	}

	var buf bytes.Buffer
	err := writeStatusText(&buf, status)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Store backend: sqlite (connected)")
	assert.Contains(t, output, "jobs")
	assert.Contains(t, output, "contractors")
	assert.Contains(t, output, "match_runs")
}

func TestWriteStatusTextDisconnected(t *testing.T) {
	status := schema.StoreStatus{Backend: "none"}

	var buf bytes.Buffer
	err := writeStatusText(&buf, status)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Store backend: none (disconnected)")
	assert.NotContains(t, output, "Rows")
}

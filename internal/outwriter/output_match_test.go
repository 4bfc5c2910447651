package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// sampleMatchResult builds a two-contractor result used by the match output
// tests.
func sampleMatchResult() *schema.MatchResult {
	return &schema.MatchResult{
		RunID:     "run-123",
		JobID:     42,
		Duration:  120 * time.Millisecond,
		FromCache: false,
		Contractors: []schema.ContractorScore{
			{
				Contractor:  schema.Contractor{ID: 7, Name: "Rivera Plumbing"},
				Reliability: 0.9,
				Workload:    0.7,
				Quality:     0.8,
				Price:       0.6,
				MatchScore:  0.85,
				DistanceKm:  4.2,
				Tier:        schema.TierTop,
			},
			{
				Contractor:  schema.Contractor{ID: 9, Name: "Cascade Pipeworks"},
				Reliability: 0.5,
				Workload:    0.9,
				Quality:     0.6,
				Price:       0.4,
				MatchScore:  0.61,
				DistanceKm:  12.8,
				Tier:        schema.TierGood,
			},
		},
	}
}

func TestWriteMatchTable(t *testing.T) {
	cfg := &contract.Config{
		Output:    schema.TextOut,
		Precision: 2,
		UseColors: false,
		Width:     120,
	}

	var buf bytes.Buffer
	err := writeMatchTable(&buf, sampleMatchResult(), cfg, createFormatter(cfg.Precision))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Rivera Plumbing")
	assert.Contains(t, output, "Cascade Pipeworks")
	assert.Contains(t, output, "0.85")
	assert.Contains(t, output, "Excellent")
	assert.Contains(t, output, "top")
	assert.Contains(t, output, "good")
	assert.Contains(t, output, "Matched 2 contractors for job 42 in 120ms (computed)")
}

func TestWriteMatchTableCached(t *testing.T) {
	cfg := &contract.Config{
		Output:    schema.TextOut,
		Precision: 2,
		Width:     120,
	}
	result := sampleMatchResult()
	result.FromCache = true

	var buf bytes.Buffer
	err := writeMatchTable(&buf, result, cfg, createFormatter(cfg.Precision))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "(cached)")
}

func TestWriteMatchCSV(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMatchCSV(w, sampleMatchResult(), createFormatter(2))
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + 2 rows

	assert.Contains(t, lines[0], "rank")
	assert.Contains(t, lines[0], "match_score")
	assert.Contains(t, lines[0], "top_factors")

	assert.Contains(t, lines[1], "Rivera Plumbing")
	assert.Contains(t, lines[1], "0.85")
	assert.Contains(t, lines[1], "reliability > quality")
	assert.Contains(t, lines[2], "Cascade Pipeworks")
	assert.Contains(t, lines[2], "workload > quality")
}

func TestWriteMatchJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeMatchJSON(&buf, sampleMatchResult())
	require.NoError(t, err)

	var result map[string]any
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)

	assert.Equal(t, "run-123", result["run_id"])
	assert.Equal(t, float64(42), result["job_id"])
	assert.Equal(t, float64(120), result["duration_ms"])

	contractors, ok := result["contractors"].([]any)
	require.True(t, ok)
	require.Len(t, contractors, 2)

	first, ok := contractors[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "Excellent", first["label"])
	assert.Equal(t, 0.85, first["match_score"])

	second, ok := contractors[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), second["rank"])
	assert.Equal(t, "Strong", second["label"])
}

func TestWriteMatchJSONEmpty(t *testing.T) {
	result := &schema.MatchResult{RunID: "run-empty", JobID: 5}

	var buf bytes.Buffer
	err := writeMatchJSON(&buf, result)
	require.NoError(t, err)

	var parsed map[string]any
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	contractors, ok := parsed["contractors"].([]any)
	require.True(t, ok)
	assert.Empty(t, contractors)
}

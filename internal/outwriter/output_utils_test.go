package outwriter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{
			name:      "precision 2",
			precision: 2,
			value:     0.68901,
			expected:  "0.69",
		},
		{
			name:      "precision 0",
			precision: 0,
			value:     3.14159,
			expected:  "3",
		},
		{
			name:      "precision 4",
			precision: 4,
			value:     0.48299,
			expected:  "0.4830",
		},
		{
			name:      "negative value",
			precision: 2,
			value:     -42.567,
			expected:  "-42.57",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat := createFormatter(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name: "simple object",
			data: map[string]any{
				"name":  "test",
				"value": 42,
			},
			expected: `{
  "name": "test",
  "value": 42
}
`,
		},
		{
			name: "array",
			data: []string{"a", "b", "c"},
			expected: `[
  "a",
  "b",
  "c"
]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeJSON(&buf, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	// Channels cannot be marshaled to JSON
	invalidData := make(chan int)
	var buf bytes.Buffer
	err := writeJSON(&buf, invalidData)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestFormatTopScoreBreakdown(t *testing.T) {
	tests := []struct {
		name     string
		score    *schema.ContractorScore
		expected string
	}{
		{
			name: "reliability and quality lead",
			score: &schema.ContractorScore{
				Reliability: 0.9,
				Workload:    0.7,
				Quality:     0.8,
				Price:       0.6,
			},
			expected: "reliability > quality",
		},
		{
			name: "workload and price lead",
			score: &schema.ContractorScore{
				Reliability: 0.1,
				Workload:    1.0,
				Quality:     0.2,
				Price:       0.5,
			},
			expected: "workload > price",
		},
		{
			name: "descending order preserved",
			score: &schema.ContractorScore{
				Reliability: 0.5,
				Workload:    0.4,
				Quality:     0.3,
				Price:       0.2,
			},
			expected: "reliability > workload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTopScoreBreakdown(tt.score))
		})
	}
}

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{
			name:     "wide terminal capped",
			width:    200,
			expected: 40,
		},
		{
			name:     "medium terminal",
			width:    100,
			expected: 28,
		},
		{
			name:     "narrow terminal floored",
			width:    60,
			expected: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.expected, getMaxTableNameWidth(cfg))
		})
	}
}

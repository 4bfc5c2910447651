// Package outwriter has output and writer logic for CLI results.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the output formats and provides a clean API for commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteMatch prints a match result using the configured output format.
func (ow *OutWriter) WriteMatch(result *schema.MatchResult, cfg *contract.Config) error {
	return WriteMatchResult(result, cfg)
}

// WritePrediction prints a price prediction using the configured output format.
func (ow *OutWriter) WritePrediction(pred schema.PricePrediction, cfg *contract.Config) error {
	return WritePricePrediction(pred, cfg)
}

// WriteMetrics prints metric snapshots using the configured output format.
func (ow *OutWriter) WriteMetrics(metrics []schema.ContractorMetrics, cfg *contract.Config, duration time.Duration) error {
	return WriteMetricsSnapshot(metrics, cfg, duration)
}

// WriteStatus prints reference store status using the configured output format.
func (ow *OutWriter) WriteStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return WriteStoreStatus(status, cfg)
}

// getMaxTableNameWidth calculates the maximum width for contractor names in
// table output based on terminal width.
func getMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Conservative default for narrow terminals and CI
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the fixed columns: rank, tier, four sub-scores,
	// match score, distance, label, plus borders and padding.
	baseWidth := 72

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}

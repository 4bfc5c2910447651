package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it,
// and cleaning up. It accepts a writer function that takes an io.Writer.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// createFormatter creates the float formatter closure shared across output
// types.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// formatTopScoreBreakdown names the strongest sub-scores behind a match, for
// explain output.
func formatTopScoreBreakdown(s *schema.ContractorScore) string {
	type component struct {
		name  string
		value float64
	}
	components := []component{
		{"reliability", s.Reliability},
		{"workload", s.Workload},
		{"quality", s.Quality},
		{"price", s.Price},
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].value > components[j].value
	})

	parts := make([]string, 0, 2)
	for _, c := range components[:2] {
		parts = append(parts, c.name)
	}
	return strings.Join(parts, " > ")
}

package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// WriteMatchResult outputs a match result, dispatching on the configured
// output format.
func WriteMatchResult(result *schema.MatchResult, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatchJSON(w, result)
		}, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeMatchCSV(csvWriter, result, fmtFloat)
		}, "CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatchTable(w, result, cfg, fmtFloat)
		}, "table")
	}
}

// writeMatchTable generates and writes the human-readable ranking table.
func writeMatchTable(w io.Writer, result *schema.MatchResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)

	table.Header([]string{
		"Rank", "Contractor", "Tier", "Match", "Label",
		"Reliab", "Workload", "Quality", "Price", "Dist (km)",
	})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableNameWidth(cfg)
	label := contract.GetColorLabel
	if !cfg.UseColors {
		label = contract.GetPlainLabel
	}

	var data [][]string
	for i, s := range result.Contractors {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateName(s.Contractor.Name, nameWidth),
			s.Tier.String(),
			fmtFloat(s.MatchScore),
			label(s.MatchScore),
			fmtFloat(s.Reliability),
			fmtFloat(s.Workload),
			fmtFloat(s.Quality),
			fmtFloat(s.Price),
			fmtFloat(s.DistanceKm),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	source := "computed"
	if result.FromCache {
		source = "cached"
	}
	_, err := fmt.Fprintf(w, "Matched %d contractors for job %d in %v (%s)\n",
		len(result.Contractors), result.JobID, result.Duration, source)
	return err
}

// writeMatchCSV writes the ranking in CSV format.
func writeMatchCSV(w *csv.Writer, result *schema.MatchResult, fmtFloat func(float64) string) error {
	header := []string{
		"rank", "contractor_id", "contractor", "tier", "match_score", "label",
		"reliability", "workload", "quality", "price", "distance_km", "top_factors",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, s := range result.Contractors {
		rec := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(s.Contractor.ID, 10),
			s.Contractor.Name,
			s.Tier.String(),
			fmtFloat(s.MatchScore),
			contract.GetPlainLabel(s.MatchScore),
			fmtFloat(s.Reliability),
			fmtFloat(s.Workload),
			fmtFloat(s.Quality),
			fmtFloat(s.Price),
			fmtFloat(s.DistanceKm),
			formatTopScoreBreakdown(&s),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeMatchJSON writes the match result in JSON format with rank and label
// added per contractor.
func writeMatchJSON(w io.Writer, result *schema.MatchResult) error {
	type jsonScore struct {
		Rank  int    `json:"rank"`
		Label string `json:"label"`
		schema.ContractorScore
	}
	type jsonResult struct {
		RunID       string      `json:"run_id"`
		JobID       int64       `json:"job_id"`
		FromCache   bool        `json:"from_cache"`
		DurationMs  int64       `json:"duration_ms"`
		Contractors []jsonScore `json:"contractors"`
	}

	out := jsonResult{
		RunID:       result.RunID,
		JobID:       result.JobID,
		FromCache:   result.FromCache,
		DurationMs:  result.Duration.Milliseconds(),
		Contractors: make([]jsonScore, len(result.Contractors)),
	}
	for i, s := range result.Contractors {
		out.Contractors[i] = jsonScore{
			Rank:            i + 1,
			Label:           contract.GetPlainLabel(s.MatchScore),
			ContractorScore: s,
		}
	}
	return writeJSON(w, out)
}

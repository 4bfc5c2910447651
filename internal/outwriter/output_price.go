package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// WritePricePrediction outputs a price prediction, dispatching on the
// configured output format.
func WritePricePrediction(pred schema.PricePrediction, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, pred)
		}, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writePriceCSV(csvWriter, pred, fmtFloat)
		}, "CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePriceText(w, pred, fmtFloat)
		}, "prediction")
	}
}

func writePriceText(w io.Writer, pred schema.PricePrediction, fmtFloat func(float64) string) error {
	lines := []string{
		fmt.Sprintf("Job %d price estimate: $%s (confidence %s)",
			pred.JobID, fmtFloat(pred.EstimatedPrice), fmtFloat(pred.Confidence)),
		fmt.Sprintf("Sample size: %d similar jobs", pred.SampleSize),
		fmt.Sprintf("Factors: trade %s, location %s, complexity %s, seasonality %s",
			fmtFloat(pred.Factors.Trade), fmtFloat(pred.Factors.Location),
			fmtFloat(pred.Factors.Complexity), fmtFloat(pred.Factors.Seasonality)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writePriceCSV(w *csv.Writer, pred schema.PricePrediction, fmtFloat func(float64) string) error {
	header := []string{
		"job_id", "estimated_price", "confidence", "sample_size",
		"trade_factor", "location_factor", "complexity_factor", "seasonality_factor",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	return w.Write([]string{
		strconv.FormatInt(pred.JobID, 10),
		fmtFloat(pred.EstimatedPrice),
		fmtFloat(pred.Confidence),
		strconv.Itoa(pred.SampleSize),
		fmtFloat(pred.Factors.Trade),
		fmtFloat(pred.Factors.Location),
		fmtFloat(pred.Factors.Complexity),
		fmtFloat(pred.Factors.Seasonality),
	})
}

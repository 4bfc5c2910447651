package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// WriteMetricsSnapshot outputs tracked contractor metrics, dispatching on the
// configured output format.
func WriteMetricsSnapshot(metrics []schema.ContractorMetrics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, metrics)
		}, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeMetricsCSV(csvWriter, metrics, fmtFloat)
		}, "CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsTable(w, metrics, duration, fmtFloat)
		}, "table")
	}
}

func writeMetricsTable(w io.Writer, metrics []schema.ContractorMetrics, duration time.Duration, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Contractor", "Reliability", "Workload", "Quality", "Price"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, m := range metrics {
		row := []string{strconv.FormatInt(m.ContractorID, 10)}
		for _, mt := range schema.AllMetricTypes {
			row = append(row, fmtFloat(m.Scores[mt]))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Swept %d contractors in %v\n", len(metrics), duration)
	return err
}

func writeMetricsCSV(w *csv.Writer, metrics []schema.ContractorMetrics, fmtFloat func(float64) string) error {
	header := []string{"contractor_id"}
	for _, mt := range schema.AllMetricTypes {
		header = append(header, string(mt))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, m := range metrics {
		rec := []string{strconv.FormatInt(m.ContractorID, 10)}
		for _, mt := range schema.AllMetricTypes {
			rec = append(rec, fmtFloat(m.Scores[mt]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteStoreStatus outputs reference store status.
func WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusText(w, status)
		}, "status")
	}
}

func writeStatusText(w io.Writer, status schema.StoreStatus) error {
	state := "disconnected"
	if status.Connected {
		state = "connected"
	}
	if _, err := fmt.Fprintf(w, "Store backend: %s (%s)\n", status.Backend, state); err != nil {
		return err
	}
	if len(status.TableSizes) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Table", "Rows"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, name := range []string{
		"jobs", "contractors", "contractor_trades", "quotes", "reviews",
		"schedule_slots", "match_runs", "match_scores",
	} {
		if count, ok := status.TableSizes[name]; ok {
			data = append(data, []string{name, strconv.FormatInt(count, 10)})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

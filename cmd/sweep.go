package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tradecrew/matchengine/internal/contract"
)

// sweepCmd runs one metrics sweep and prints the resulting snapshots.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Recompute metrics for all active contractors.",
	Long: `Run a single metrics sweep over every active contractor.

Each contractor's reliability, workload, quality and price metrics are
recomputed from current store data. In a long-running deployment this happens
on a timer; the command exists for cron-driven setups and ad hoc inspection.

Examples:
  # Sweep and print the snapshot table
  matchengine sweep

  # Export the snapshot to CSV
  matchengine sweep --output csv --output-file metrics.csv`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		defer teardown()

		start := time.Now()
		engine.Tracker().Sweep(rootCtx)
		metrics := engine.Tracker().SnapshotAll()

		if err := writer.WriteMetrics(metrics, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write metrics", err)
		}
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/internal/datastore"
)

// storeCmd groups reference-store maintenance commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the reference data store.",
	Long:  `Inspect, migrate, seed and export the SQL reference store.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// storeStatusCmd reports connection state and table sizes.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show store connection state and table sizes.",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		s, err := datastore.New(cfg.StoreBackend, cfg.StoreConnect)
		if err != nil {
			contract.LogFatal("Cannot open store", err)
		}
		defer func() { _ = s.Close() }()

		status, err := s.GetStatus()
		if err != nil {
			contract.LogFatal("Cannot read store status", err)
		}
		if err := writer.WriteStatus(status, cfg); err != nil {
			contract.LogFatal("Cannot write store status", err)
		}
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run store schema migrations.",
	Long: `Apply or roll back store schema migrations.

Examples:
  # Migrate to the latest version
  matchengine store migrate

  # Roll everything back
  matchengine store migrate --target-version 0`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := datastore.Migrate(cfg.StoreBackend, cfg.StoreConnect, targetVersion); err != nil {
			contract.LogFatal("Cannot run migrations", err)
		}
	},
}

// storeSeedCmd loads demo marketplace data.
var storeSeedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Load demo marketplace data into a fresh store.",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		s, err := datastore.New(cfg.StoreBackend, cfg.StoreConnect)
		if err != nil {
			contract.LogFatal("Cannot open store", err)
		}
		defer func() { _ = s.Close() }()

		if err := s.SeedDemo(rootCtx); err != nil {
			contract.LogFatal("Cannot seed store", err)
		}
		fmt.Println("Seeded demo data.")
	},
}

// storeExportCmd exports the match log to parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded match runs and scores to parquet.",
	Long: `Export the match log to parquet files for offline analysis.

Examples:
  # Export with default file names
  matchengine store export

  # Pick output paths
  matchengine store export --runs-file runs.parquet --scores-file scores.parquet`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		s, err := datastore.New(cfg.StoreBackend, cfg.StoreConnect)
		if err != nil {
			contract.LogFatal("Cannot open store", err)
		}
		defer func() { _ = s.Close() }()

		runs, err := s.GetAllRuns(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot read match runs", err)
		}
		scores, err := s.GetAllScores(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot read match scores", err)
		}

		runsFile := viper.GetString("runs-file")
		scoresFile := viper.GetString("scores-file")
		if err := datastore.WriteRunsParquet(datastore.ToRunRecords(runs), runsFile); err != nil {
			contract.LogFatal("Cannot export match runs", err)
		}
		if err := datastore.WriteScoresParquet(datastore.ToScoreRecords(scores), scoresFile); err != nil {
			contract.LogFatal("Cannot export match scores", err)
		}
		fmt.Printf("Exported %d runs to %s and %d scores to %s\n",
			len(runs), runsFile, len(scores), scoresFile)
	},
}

// Package cmd defines the command-line interface for matchengine.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeSeedCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Float64P("radius", "r", contract.DefaultMaxRadiusKm, "Maximum contractor distance in kilometers")
	rootCmd.PersistentFlags().Float64("min-rating", contract.DefaultMinRating, "Minimum contractor rating to be eligible")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultMaxContractors, "Maximum contractors to select per match")
	rootCmd.PersistentFlags().Int("batch-size", contract.DefaultInitialBatchSize, "Contractors drawn per tier before filling")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultScoreWorkers, "Number of concurrent scoring workers")
	rootCmd.PersistentFlags().String("cache-ttl", "", "Result cache freshness window (e.g. 10m)")
	rootCmd.PersistentFlags().String("cache-max-stale", "", "Result cache staleness bound (e.g. 30m)")
	rootCmd.PersistentFlags().String("match-timeout", "", "Per-match deadline (e.g. 30s)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-connect", "", "Database connection string (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", 2, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "auto", "Colored labels in output (auto/on/off)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// Bind all flags of storeExportCmd to Viper
	storeExportCmd.Flags().String("runs-file", "match_runs.parquet", "Output path for the match runs parquet file")
	storeExportCmd.Flags().String("scores-file", "match_scores.parquet", "Output path for the match scores parquet file")
	if err := viper.BindPFlags(storeExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store export flags", err)
	}
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/core"
	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/internal/datastore"
	"github.com/tradecrew/matchengine/internal/geocode"
	"github.com/tradecrew/matchengine/internal/outwriter"
	"github.com/tradecrew/matchengine/schema"
)

// All linker flags will be set by release infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = contract.NewConfig()

// input holds the raw, unvalidated configuration from all sources (file,
// env, flags). Viper unmarshals into this struct.
var input = &contract.ConfigRawInput{}

// Shared instances built by sharedSetup.
var (
	logger *zap.Logger
	store  *datastore.SQLStore
	engine *core.Engine
	writer = outwriter.NewOutWriter()
)

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "matchengine",
	Short:              "Match homeowner jobs to the right contractors.",
	Long:               `Matchengine scores, ranks and fairly distributes contractors for home improvement jobs.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".matchengine") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")     // Look in the current directory
		viper.AddConfigPath("$HOME") // Look in the home directory
	}

	viper.SetEnvPrefix("MATCHENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("radius", contract.DefaultMaxRadiusKm)
	viper.SetDefault("min-rating", contract.DefaultMinRating)
	viper.SetDefault("limit", contract.DefaultMaxContractors)
	viper.SetDefault("batch-size", contract.DefaultInitialBatchSize)
	viper.SetDefault("workers", contract.DefaultScoreWorkers)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("precision", 2)
	viper.SetDefault("color", "auto")
}

// loadConfigFile handles config file loading common to all setup paths.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; defaults/env/flags apply.
	}
	return nil
}

// sharedSetup unmarshals config, validates it, and builds the store, the
// geocoder and the engine.
func sharedSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	logger = contract.NewLogger(cfg.LogLevel)

	var err error
	store, err = datastore.New(cfg.StoreBackend, cfg.StoreConnect)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	geocoder := geocode.NewLimited(geocode.NewStatic(), 50, 100)

	engine, err = core.New(cfg, store, geocoder,
		core.WithLogger(logger),
		core.WithMatchLog(store),
	)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	return nil
}

// teardown releases resources built by sharedSetup. Safe to call when setup
// failed partway.
func teardown() {
	if engine != nil {
		engine.Close()
	}
	if store != nil {
		_ = store.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// storeSetup loads the minimal configuration needed for store maintenance
// commands without constructing an engine.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return contract.ProcessAndValidate(cfg, input)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

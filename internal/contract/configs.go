package contract

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tradecrew/matchengine/schema"
)

// Default values for configuration.
const (
	DefaultMaxRadiusKm       = 50.0
	DefaultMinRating         = 3.5
	DefaultMaxContractors    = 10
	DefaultInitialBatchSize  = 3
	DefaultMaxConcurrentJobs = 5
	DefaultScoreWorkers      = 8

	DefaultCacheTTL           = 10 * time.Minute
	DefaultCacheMaxStale      = 30 * time.Minute
	DefaultCacheSweepInterval = 10 * time.Minute
	DefaultCacheMaxSize       = 1000

	DefaultMetricsInterval = 5 * time.Minute
	DefaultMetricThreshold = 0.1

	DefaultMatchTimeout = 30 * time.Second

	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultBackoffFactor  = 1.5
	DefaultMaxBackoff     = 10 * time.Second
)

// weightTolerance is the floating-point slack allowed when validating that
// match weights sum to 1.0.
const weightTolerance = 1e-9

// MatchWeights holds the convex-combination weights for the four sub-scores.
type MatchWeights struct {
	Reliability float64 `mapstructure:"reliability"`
	Workload    float64 `mapstructure:"workload"`
	Quality     float64 `mapstructure:"quality"`
	Price       float64 `mapstructure:"price"`
}

// DefaultMatchWeights returns the production-tuned weights.
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{Reliability: 0.3, Workload: 0.2, Quality: 0.3, Price: 0.2}
}

// Validate checks that every weight is non-negative and the sum is 1.0.
func (w MatchWeights) Validate() error {
	for name, v := range map[string]float64{
		"reliability": w.Reliability,
		"workload":    w.Workload,
		"quality":     w.Quality,
		"price":       w.Price,
	} {
		if v < 0 {
			return fmt.Errorf("match weight %s must be non-negative (received %g)", name, v)
		}
	}
	sum := w.Reliability + w.Workload + w.Quality + w.Price
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("match weights must sum to 1.0 (received %g)", sum)
	}
	return nil
}

// Config holds the runtime configuration for the engine.
// This struct remains the "final, validated" config.
type Config struct {
	Weights MatchWeights

	MaxRadiusKm       float64
	MinRating         float64
	MaxContractors    int
	InitialBatchSize  int
	MaxConcurrentJobs int
	ScoreWorkers      int

	CacheTTL           time.Duration
	CacheMaxStale      time.Duration
	CacheSweepInterval time.Duration
	CacheMaxSize       int

	MetricsInterval time.Duration
	MetricThreshold float64

	MatchTimeout time.Duration

	MaxRetries     int
	InitialBackoff time.Duration
	BackoffFactor  float64
	MaxBackoff     time.Duration

	StoreBackend schema.DatabaseBackend
	StoreConnect string // Please use env var as this is plaintext

	LogLevel   string
	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	Radius        float64 `mapstructure:"radius"`
	MinRating     float64 `mapstructure:"min-rating"`
	Limit         int     `mapstructure:"limit"`
	BatchSize     int     `mapstructure:"batch-size"`
	Workers       int     `mapstructure:"workers"`
	CacheTTL      string  `mapstructure:"cache-ttl"`
	CacheMaxStale string  `mapstructure:"cache-max-stale"`
	MatchTimeout  string  `mapstructure:"match-timeout"`
	StoreBackend  string  `mapstructure:"store-backend"`
	StoreConnect  string  `mapstructure:"store-connect"`
	LogLevel      string  `mapstructure:"log-level"`
	Output        string  `mapstructure:"output"`
	OutputFile    string  `mapstructure:"output-file"`
	Precision     int     `mapstructure:"precision"`
	Width         int     `mapstructure:"width"`
	Color         string  `mapstructure:"color"`

	// Weights come from the config file only.
	Weights *MatchWeights `mapstructure:"weights"`
}

// NewConfig returns a Config populated with defaults. Weight validation is
// part of construction so an invalid weight set can never reach the scorer.
func NewConfig() *Config {
	return &Config{
		Weights:            DefaultMatchWeights(),
		MaxRadiusKm:        DefaultMaxRadiusKm,
		MinRating:          DefaultMinRating,
		MaxContractors:     DefaultMaxContractors,
		InitialBatchSize:   DefaultInitialBatchSize,
		MaxConcurrentJobs:  DefaultMaxConcurrentJobs,
		ScoreWorkers:       DefaultScoreWorkers,
		CacheTTL:           DefaultCacheTTL,
		CacheMaxStale:      DefaultCacheMaxStale,
		CacheSweepInterval: DefaultCacheSweepInterval,
		CacheMaxSize:       DefaultCacheMaxSize,
		MetricsInterval:    DefaultMetricsInterval,
		MetricThreshold:    DefaultMetricThreshold,
		MatchTimeout:       DefaultMatchTimeout,
		MaxRetries:         DefaultMaxRetries,
		InitialBackoff:     DefaultInitialBackoff,
		BackoffFactor:      DefaultBackoffFactor,
		MaxBackoff:         DefaultMaxBackoff,
		StoreBackend:       schema.SQLiteBackend,
		LogLevel:           "info",
		Output:             schema.TextOut,
		Precision:          2,
		UseColors:          true,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if input.Radius != 0 {
		if input.Radius < 0 {
			return fmt.Errorf("radius must be positive (received %g)", input.Radius)
		}
		cfg.MaxRadiusKm = input.Radius
	}
	if input.MinRating != 0 {
		if input.MinRating < 0 || input.MinRating > 5 {
			return fmt.Errorf("min-rating must be between 0 and 5 (received %g)", input.MinRating)
		}
		cfg.MinRating = input.MinRating
	}
	if input.Limit != 0 {
		if input.Limit < 0 {
			return fmt.Errorf("limit must be positive (received %d)", input.Limit)
		}
		cfg.MaxContractors = input.Limit
	}
	if input.BatchSize != 0 {
		if input.BatchSize < 0 {
			return fmt.Errorf("batch-size must be positive (received %d)", input.BatchSize)
		}
		cfg.InitialBatchSize = input.BatchSize
	}
	if input.Workers != 0 {
		if input.Workers < 0 {
			return fmt.Errorf("workers must be positive (received %d)", input.Workers)
		}
		cfg.ScoreWorkers = input.Workers
	}

	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{input.CacheTTL, &cfg.CacheTTL, "cache-ttl"},
		{input.CacheMaxStale, &cfg.CacheMaxStale, "cache-max-stale"},
		{input.MatchTimeout, &cfg.MatchTimeout, "match-timeout"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		*d.dst = parsed
	}
	if cfg.CacheMaxStale < cfg.CacheTTL {
		return fmt.Errorf("cache-max-stale (%s) cannot be shorter than cache-ttl (%s)", cfg.CacheMaxStale, cfg.CacheTTL)
	}

	if input.StoreBackend != "" {
		backend := schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
		switch backend {
		case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend, schema.NoneBackend:
			cfg.StoreBackend = backend
		default:
			return fmt.Errorf("invalid store backend %q. must be sqlite, mysql, postgresql, or none", input.StoreBackend)
		}
	}
	cfg.StoreConnect = input.StoreConnect

	if input.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(input.LogLevel)
	}

	if input.Output != "" {
		out := schema.OutputMode(strings.ToLower(input.Output))
		switch out {
		case schema.TextOut, schema.JSONOut, schema.CSVOut:
			cfg.Output = out
		default:
			return fmt.Errorf("invalid output format %q. must be text, json, or csv", input.Output)
		}
	}
	cfg.OutputFile = input.OutputFile

	if input.Precision != 0 {
		if input.Precision < 1 || input.Precision > 4 {
			return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
		}
		cfg.Precision = input.Precision
	}
	if input.Width != 0 {
		cfg.Width = input.Width
	}
	switch strings.ToLower(input.Color) {
	case "", "auto", "on":
	case "off":
		cfg.UseColors = false
	default:
		return fmt.Errorf("invalid color setting %q. must be auto, on, or off", input.Color)
	}

	if input.Weights != nil {
		cfg.Weights = *input.Weights
	}
	return cfg.Weights.Validate()
}

// Clone returns a copy of the Config struct. All fields are value types, so
// a shallow copy is a full copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

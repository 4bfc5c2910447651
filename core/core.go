// Package core implements the contractor matching and distribution engine:
// scoring, price prediction, tiered fairness distribution, metrics tracking,
// and the stale-while-revalidate result cache behind one orchestrator.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// Engine is the public entry point. It owns the scorer, predictor, selector,
// metrics tracker, result cache and event hubs, and runs the periodic sweeps
// as a single disposable unit so tests can create isolated instances.
type Engine struct {
	cfg      *contract.Config
	store    contract.DataStore
	geocoder contract.Geocoder
	matchLog contract.MatchLogStore // optional
	log      *zap.Logger
	clock    func() time.Time

	scorer    *Scorer
	predictor *Predictor
	tracker   *Tracker
	cache     *Cache[schema.MatchResult]

	metricHub *Hub[schema.MetricChangeEvent]
	cacheHub  *Hub[schema.CacheRevalidationEvent]
	errHub    *Hub[schema.MetricsErrorEvent]

	cron      *cron.Cron
	closeOnce sync.Once
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	log      *zap.Logger
	clock    func() time.Time
	matchLog contract.MatchLogStore
	dims     map[string]QualityDimension
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *engineOptions) { o.log = log }
}

// WithClock sets a custom clock, used by tests to pin time.
func WithClock(clock func() time.Time) Option {
	return func(o *engineOptions) { o.clock = clock }
}

// WithMatchLog enables match-run recording to the given store.
func WithMatchLog(store contract.MatchLogStore) Option {
	return func(o *engineOptions) { o.matchLog = store }
}

// WithQualityDimension overrides one pluggable quality sub-scorer.
func WithQualityDimension(name string, dim QualityDimension) Option {
	return func(o *engineOptions) {
		if o.dims == nil {
			o.dims = defaultQualityDimensions()
		}
		o.dims[name] = dim
	}
}

// New builds an Engine. The store and geocoder are required; weights are
// validated here so a misconfigured engine cannot be constructed.
func New(cfg *contract.Config, store contract.DataStore, geocoder contract.Geocoder, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("core.New: data store is required")
	}
	if geocoder == nil {
		return nil, fmt.Errorf("core.New: geocoder is required")
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("core.New: %w", err)
	}

	o := &engineOptions{log: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		cfg:       cfg,
		store:     store,
		geocoder:  geocoder,
		matchLog:  o.matchLog,
		log:       o.log,
		clock:     o.clock,
		metricHub: NewHub[schema.MetricChangeEvent](),
		cacheHub:  NewHub[schema.CacheRevalidationEvent](),
		errHub:    NewHub[schema.MetricsErrorEvent](),
	}

	e.predictor = NewPredictor(cfg, store, o.clock, o.log.Named("predictor"))
	e.scorer = NewScorer(cfg, store, e.predictor, o.dims, o.clock, o.log.Named("scorer"))
	e.tracker = NewTracker(cfg, store, e.scorer, o.clock, o.log.Named("tracker"), e.metricHub, e.errHub)
	e.cache = NewCache[schema.MatchResult](cfg, o.log.Named("cache"), e.cacheHub, o.clock)

	return e, nil
}

// Start launches the periodic background sweeps: the metrics recompute and
// the cache eviction sweep. Safe to skip entirely for one-shot usage.
func (e *Engine) Start() error {
	if e.cron != nil {
		return fmt.Errorf("engine already started")
	}
	e.cron = cron.New()

	if _, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.cfg.MetricsInterval), func() {
		// Bound each sweep so a stuck store call cannot overlap the next tick.
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.MetricsInterval)
		defer cancel()
		e.tracker.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("schedule metrics sweep: %w", err)
	}
	if _, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.cfg.CacheSweepInterval), func() {
		e.cache.Sweep()
	}); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}

	e.cron.Start()
	e.log.Info("engine started",
		zap.Duration("metrics_interval", e.cfg.MetricsInterval),
		zap.Duration("cache_sweep_interval", e.cfg.CacheSweepInterval))
	return nil
}

// Close stops all background tasks and closes the event hubs as one unit.
// Leaked timers keep the process alive and cause cross-test interference, so
// anything Start launched stops here. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.cron != nil {
			ctx := e.cron.Stop()
			<-ctx.Done() // wait for in-flight sweeps
		}
		e.metricHub.Close()
		e.cacheHub.Close()
		e.errHub.Close()
		e.log.Info("engine stopped")
	})
}

// MetricChanges streams significant contractor metric movements.
func (e *Engine) MetricChanges() chan schema.MetricChangeEvent {
	return e.metricHub.Subscribe()
}

// CacheEvents streams background revalidation outcomes.
func (e *Engine) CacheEvents() chan schema.CacheRevalidationEvent {
	return e.cacheHub.Subscribe()
}

// MetricsErrors streams isolated per-contractor sweep failures.
func (e *Engine) MetricsErrors() chan schema.MetricsErrorEvent {
	return e.errHub.Subscribe()
}

// Tracker exposes the metrics tracker, mainly for one-shot CLI sweeps.
func (e *Engine) Tracker() *Tracker { return e.tracker }

package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// Tracker periodically recomputes each active contractor's aggregate metrics
// and emits change notifications when a metric moves by more than the
// configured threshold. Snapshots live for the process lifetime only.
type Tracker struct {
	cfg    *contract.Config
	store  contract.DataStore
	scorer *Scorer
	clock  func() time.Time
	log    *zap.Logger

	changes *Hub[schema.MetricChangeEvent]
	errs    *Hub[schema.MetricsErrorEvent]

	mu      sync.Mutex
	metrics map[int64]schema.ContractorMetrics
}

// NewTracker builds a Tracker.
func NewTracker(cfg *contract.Config, store contract.DataStore, scorer *Scorer, clock func() time.Time, log *zap.Logger, changes *Hub[schema.MetricChangeEvent], errs *Hub[schema.MetricsErrorEvent]) *Tracker {
	return &Tracker{
		cfg:     cfg,
		store:   store,
		scorer:  scorer,
		clock:   clock,
		log:     log,
		changes: changes,
		errs:    errs,
		metrics: make(map[int64]schema.ContractorMetrics),
	}
}

// Sweep recomputes metrics for every active contractor. One contractor's
// failure is isolated: logged, emitted as a MetricsErrorEvent, and the sweep
// continues for the others.
func (t *Tracker) Sweep(ctx context.Context) {
	contractors, err := contract.Retry(ctx, t.cfg, func() ([]schema.Contractor, error) {
		return t.store.GetActiveContractors(ctx)
	})
	if err != nil {
		t.log.Warn("metrics sweep could not list contractors", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.ScoreWorkers)
	for _, c := range contractors {
		g.Go(func() error {
			if err := t.update(gctx, &c); err != nil {
				t.log.Warn("metrics update failed",
					zap.Int64("contractor_id", c.ID), zap.Error(err))
				t.errs.Publish(schema.MetricsErrorEvent{
					ContractorID: c.ID,
					Err:          err.Error(),
					At:           t.clock(),
				})
			}
			return nil // isolation: never cancel sibling updates
		})
	}
	_ = g.Wait()
}

// update recomputes one contractor's metrics and publishes change events.
// History is fetched and scored outside the lock; only the snapshot swap
// happens under it.
func (t *Tracker) update(ctx context.Context, c *schema.Contractor) error {
	hist, err := t.scorer.fetchHistory(ctx, c.ID)
	if err != nil {
		return err
	}

	detail := make(map[string]float64)
	quality, err := t.scorer.qualityScore(ctx, c, hist, detail)
	if err != nil {
		return err
	}
	price, err := t.scorer.PriceCompetitiveness(ctx, c.ID)
	if err != nil {
		return err
	}

	next := schema.ContractorMetrics{
		ContractorID: c.ID,
		Scores: map[schema.MetricType]float64{
			schema.MetricReliability: t.scorer.reliabilityScore(hist, detail),
			schema.MetricWorkload:    t.scorer.workloadScore(hist.jobs, detail),
			schema.MetricQuality:     quality,
			schema.MetricPrice:       price,
		},
		UpdatedAt: t.clock(),
	}

	t.mu.Lock()
	prev, seen := t.metrics[c.ID]
	t.metrics[c.ID] = next
	t.mu.Unlock()

	// First computation establishes the baseline without notifications.
	if !seen {
		return nil
	}

	for _, metric := range schema.AllMetricTypes {
		oldV, newV := prev.Scores[metric], next.Scores[metric]
		delta := newV - oldV
		if delta < 0 {
			delta = -delta
		}
		if delta > t.cfg.MetricThreshold {
			t.changes.Publish(schema.MetricChangeEvent{
				ContractorID: c.ID,
				Metric:       metric,
				OldValue:     oldV,
				NewValue:     newV,
				At:           next.UpdatedAt,
			})
		}
	}
	return nil
}

// Snapshot returns the current metrics for a contractor, if tracked.
func (t *Tracker) Snapshot(contractorID int64) (schema.ContractorMetrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.metrics[contractorID]
	return m, ok
}

// SnapshotAll returns every tracked contractor's metrics, ordered by
// contractor ID.
func (t *Tracker) SnapshotAll() []schema.ContractorMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]schema.ContractorMetrics, 0, len(t.metrics))
	for _, m := range t.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractorID < out[j].ContractorID })
	return out
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// matchCacheKeyPrefix namespaces result-cache keys per job.
const matchCacheKeyPrefix = "matching_contractors_"

// FindMatchingContractors answers "which contractors should see job jobID,
// in what order, right now". Results are served from the stale-while-
// revalidate cache when possible. It fails with ErrJobNotFound,
// ErrMissingTradeInfo, ErrNoEligibleContractors, or ErrMatchTimeout when the
// per-match deadline elapses; it never returns a partially scored list.
func (e *Engine) FindMatchingContractors(ctx context.Context, jobID int64) (*schema.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.MatchTimeout)
	defer cancel()

	key := fmt.Sprintf("%s%d", matchCacheKeyPrefix, jobID)
	result, fromCache, err := e.cache.Get(ctx, key, func(ctx context.Context) (schema.MatchResult, error) {
		return e.computeMatch(ctx, jobID)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: job %d", contract.ErrMatchTimeout, jobID)
		}
		return nil, err
	}

	// The cached value is shared; hand the caller its own copy.
	out := result
	out.FromCache = fromCache
	out.Contractors = make([]schema.ContractorScore, len(result.Contractors))
	copy(out.Contractors, result.Contractors)
	return &out, nil
}

// computeMatch runs the full pipeline: fetch, filter, score, select, record.
// Phase order is fixed: scoring happens before ranking happens before tier
// selection.
func (e *Engine) computeMatch(ctx context.Context, jobID int64) (schema.MatchResult, error) {
	started := e.clock()
	runID := uuid.NewString()
	log := e.log.With(zap.String("run_id", runID), zap.Int64("job_id", jobID))

	// --- 1. Job lookup and validation ---
	job, err := contract.Retry(ctx, e.cfg, func() (*schema.Job, error) {
		return e.store.GetJob(ctx, jobID)
	})
	if err != nil {
		return schema.MatchResult{}, err
	}
	if job == nil {
		return schema.MatchResult{}, fmt.Errorf("%w: id %d", contract.ErrJobNotFound, jobID)
	}
	if job.TradeID == 0 {
		return schema.MatchResult{}, fmt.Errorf("%w: job %d", contract.ErrMissingTradeInfo, jobID)
	}

	jobLoc, err := contract.Retry(ctx, e.cfg, func() (schema.GeoPoint, error) {
		return e.geocoder.Geocode(ctx, job.Location)
	})
	if err != nil {
		return schema.MatchResult{}, fmt.Errorf("resolving job location: %w", err)
	}

	// --- 2. Candidate gathering and filtering ---
	contractors, err := contract.Retry(ctx, e.cfg, func() ([]schema.Contractor, error) {
		return e.store.GetContractorsByTrade(ctx, job.TradeID)
	})
	if err != nil {
		return schema.MatchResult{}, err
	}

	candidates := e.filterCandidates(ctx, log, job, jobLoc, contractors)
	if len(candidates) == 0 {
		return schema.MatchResult{}, fmt.Errorf("%w: job %d", contract.ErrNoEligibleContractors, jobID)
	}

	// --- 3. Concurrent scoring ---
	scores := e.scorer.ScoreBatch(ctx, job, candidates)
	if len(scores) == 0 {
		return schema.MatchResult{}, fmt.Errorf("%w: job %d", contract.ErrNoEligibleContractors, jobID)
	}

	// --- 4. Tiered fairness selection ---
	selected := SelectDistribution(scores, e.cfg)

	result := schema.MatchResult{
		RunID:       runID,
		JobID:       jobID,
		Contractors: selected,
		GeneratedAt: e.clock(),
		Duration:    e.clock().Sub(started),
	}

	// --- 5. Match log recording (best effort) ---
	if e.matchLog != nil {
		e.recordMatchRun(ctx, log, started, len(candidates), &result)
	}

	log.Info("match computed",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// filterCandidates keeps active contractors that meet the minimum rating,
// resolve to coordinates, sit inside the radius, and have no committed
// schedule conflict. A geocoding failure silently excludes that contractor
// from this match only.
func (e *Engine) filterCandidates(ctx context.Context, log *zap.Logger, job *schema.Job, jobLoc schema.GeoPoint, contractors []schema.Contractor) []Candidate {
	candidates := make([]Candidate, 0, len(contractors))
	for _, c := range contractors {
		if !c.Active || c.Rating < e.cfg.MinRating {
			continue
		}

		coords := c.Coordinates
		if coords == nil {
			resolved, err := contract.Retry(ctx, e.cfg, func() (schema.GeoPoint, error) {
				return e.geocoder.Geocode(ctx, c.Address)
			})
			if err != nil {
				log.Debug("excluding contractor with unresolvable address",
					zap.Int64("contractor_id", c.ID), zap.Error(err))
				continue
			}
			coords = &resolved
			c.Coordinates = coords
		}

		dist := Distance(jobLoc, *coords)
		if dist > e.cfg.MaxRadiusKm {
			continue
		}

		if job.ScheduledAt != nil && e.hasScheduleConflict(ctx, log, c.ID, *job.ScheduledAt) {
			continue
		}

		candidates = append(candidates, Candidate{Contractor: c, DistanceKm: dist})
	}
	return candidates
}

// hasScheduleConflict reports whether the contractor has a committed slot
// covering the job's scheduled time. Slot lookup failures keep the candidate
// in the pool; availability gating is advisory.
func (e *Engine) hasScheduleConflict(ctx context.Context, log *zap.Logger, contractorID int64, at time.Time) bool {
	slots, err := contract.Retry(ctx, e.cfg, func() ([]schema.ScheduleSlot, error) {
		return e.store.GetScheduleSlotsByContractor(ctx, contractorID)
	})
	if err != nil {
		log.Debug("schedule lookup failed, keeping candidate",
			zap.Int64("contractor_id", contractorID), zap.Error(err))
		return false
	}
	for _, slot := range slots {
		if slot.Committed && slot.Overlaps(at) {
			return true
		}
	}
	return false
}

// recordMatchRun persists the run and its per-contractor scores to the match
// log. Recording failures are logged, never raised into the match path.
func (e *Engine) recordMatchRun(ctx context.Context, log *zap.Logger, started time.Time, candidateCount int, result *schema.MatchResult) {
	run := schema.MatchRun{
		RunID:          result.RunID,
		JobID:          result.JobID,
		StartedAt:      started,
		EndedAt:        result.GeneratedAt,
		CandidateCount: candidateCount,
		SelectedCount:  len(result.Contractors),
	}
	if err := e.matchLog.BeginMatchRun(ctx, run); err != nil {
		log.Warn("match log begin failed", zap.Error(err))
		return
	}

	records := make([]schema.MatchScoreRecord, 0, len(result.Contractors))
	for i, s := range result.Contractors {
		records = append(records, schema.MatchScoreRecord{
			RunID:        result.RunID,
			ContractorID: s.Contractor.ID,
			Rank:         i + 1,
			Reliability:  s.Reliability,
			Workload:     s.Workload,
			Quality:      s.Quality,
			Price:        s.Price,
			MatchScore:   s.MatchScore,
			DistanceKm:   s.DistanceKm,
			Tier:         s.Tier.String(),
			RecordedAt:   result.GeneratedAt,
		})
	}
	if err := e.matchLog.RecordScores(ctx, records); err != nil {
		log.Warn("match log scores failed", zap.Error(err))
	}
	if err := e.matchLog.EndMatchRun(ctx, result.RunID, result.GeneratedAt.Unix(), len(records)); err != nil {
		log.Warn("match log end failed", zap.Error(err))
	}
}

// PredictJobPrice estimates a fair price for the job with confidence and the
// component factors for observability.
func (e *Engine) PredictJobPrice(ctx context.Context, jobID int64) (schema.PricePrediction, error) {
	job, err := contract.Retry(ctx, e.cfg, func() (*schema.Job, error) {
		return e.store.GetJob(ctx, jobID)
	})
	if err != nil {
		return schema.PricePrediction{}, err
	}
	if job == nil {
		return schema.PricePrediction{}, fmt.Errorf("%w: id %d", contract.ErrJobNotFound, jobID)
	}
	return e.predictor.Predict(ctx, job)
}

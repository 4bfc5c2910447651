package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// Scoring constants.
const (
	// quickResponseWindow is how fast a quote must follow the job posting
	// to count toward the quick-response rate.
	quickResponseWindow = 2 * time.Hour

	// onTimeGrace is the slack past the scheduled date within which a
	// completion still counts as on time.
	onTimeGrace = 24 * time.Hour

	// neutralPriceScore is the prior used when a contractor has no quote
	// history: neither reward nor penalty.
	neutralPriceScore = 0.5
)

// Reliability sub-score mix.
const (
	wOnTime     = 0.3
	wQuickQuote = 0.2
	wAvgRating  = 0.3
	wLowCancel  = 0.2
)

// Quality sub-score mix.
const (
	wQualOnTime        = 0.25
	wQualSatisfaction  = 0.25
	wQualCommunication = 0.2
	wQualWorkmanship   = 0.2
	wQualSafety        = 0.1
)

// QualityDimension scores one quality aspect of a contractor in [0,1].
// Communication, workmanship and safety are static defaults today, pending
// richer job-sheet data; injecting a custom dimension replaces them.
type QualityDimension interface {
	Score(ctx context.Context, c *schema.Contractor) (float64, error)
}

// StaticDimension is a QualityDimension that always returns a fixed value.
type StaticDimension float64

// Score implements QualityDimension.
func (d StaticDimension) Score(_ context.Context, _ *schema.Contractor) (float64, error) {
	return float64(d), nil
}

// Quality dimension names.
const (
	DimCommunication = "communication"
	DimWorkmanship   = "workmanship"
	DimSafety        = "safety"
)

// defaultQualityDimensions returns the placeholder sub-scorers.
func defaultQualityDimensions() map[string]QualityDimension {
	return map[string]QualityDimension{
		DimCommunication: StaticDimension(0.8),
		DimWorkmanship:   StaticDimension(0.8),
		DimSafety:        StaticDimension(0.9),
	}
}

// contractorHistory is everything the scorer needs about one contractor,
// fetched up front so score math stays pure.
type contractorHistory struct {
	jobs    []schema.Job
	reviews []schema.Review
	quotes  []schema.Quote
}

// Scorer computes the four sub-scores and the weighted match score for
// contractors against a job.
type Scorer struct {
	cfg       *contract.Config
	store     contract.DataStore
	predictor *Predictor
	dims      map[string]QualityDimension
	clock     func() time.Time
	log       *zap.Logger
}

// NewScorer builds a Scorer. The weights in cfg must already be validated.
func NewScorer(cfg *contract.Config, store contract.DataStore, predictor *Predictor, dims map[string]QualityDimension, clock func() time.Time, log *zap.Logger) *Scorer {
	if dims == nil {
		dims = defaultQualityDimensions()
	}
	return &Scorer{
		cfg:       cfg,
		store:     store,
		predictor: predictor,
		dims:      dims,
		clock:     clock,
		log:       log,
	}
}

// Score computes the full ContractorScore for one contractor against a job.
// distanceKm is the already-computed great-circle distance to the job site.
func (s *Scorer) Score(ctx context.Context, job *schema.Job, c *schema.Contractor, distanceKm float64) (schema.ContractorScore, error) {
	hist, err := s.fetchHistory(ctx, c.ID)
	if err != nil {
		return schema.ContractorScore{}, err
	}

	detail := make(map[string]float64)

	reliability := s.reliabilityScore(hist, detail)
	workload := s.workloadScore(hist.jobs, detail)
	quality, err := s.qualityScore(ctx, c, hist, detail)
	if err != nil {
		return schema.ContractorScore{}, err
	}
	price := s.priceScore(ctx, job, hist.quotes, detail)

	w := s.cfg.Weights
	match := clamp01(w.Reliability*reliability + w.Workload*workload + w.Quality*quality + w.Price*price)

	return schema.ContractorScore{
		Contractor:  *c,
		Reliability: reliability,
		Workload:    workload,
		Quality:     quality,
		Price:       price,
		MatchScore:  match,
		DistanceKm:  distanceKm,
		LastJobAt:   lastJobTime(hist.jobs),
		Detail:      detail,
		UpdatedAt:   s.clock(),
	}, nil
}

// fetchHistory loads the contractor's jobs, reviews and quotes, retrying
// transient store failures.
func (s *Scorer) fetchHistory(ctx context.Context, contractorID int64) (contractorHistory, error) {
	jobs, err := contract.Retry(ctx, s.cfg, func() ([]schema.Job, error) {
		return s.store.GetJobsByContractor(ctx, contractorID)
	})
	if err != nil {
		return contractorHistory{}, err
	}
	reviews, err := contract.Retry(ctx, s.cfg, func() ([]schema.Review, error) {
		return s.store.GetReviewsByContractor(ctx, contractorID)
	})
	if err != nil {
		return contractorHistory{}, err
	}
	quotes, err := contract.Retry(ctx, s.cfg, func() ([]schema.Quote, error) {
		return s.store.GetQuotesByContractor(ctx, contractorID)
	})
	if err != nil {
		return contractorHistory{}, err
	}
	return contractorHistory{jobs: jobs, reviews: reviews, quotes: quotes}, nil
}

// reliabilityScore blends on-time completion, quick quote responses, review
// rating and the inverse cancellation rate. Components with zero samples
// contribute 0, never NaN.
func (s *Scorer) reliabilityScore(hist contractorHistory, detail map[string]float64) float64 {
	onTime := onTimeCompletionRate(hist.jobs)
	quick := quickQuoteResponseRate(hist.quotes)
	rating := averageReviewRating(hist.reviews) / 5.0
	cancel := cancellationRate(hist.jobs)

	detail[schema.DetailOnTimeRate] = onTime
	detail[schema.DetailQuickResponse] = quick
	detail[schema.DetailCancellationRate] = cancel

	return clamp01(wOnTime*onTime + wQuickQuote*quick + wAvgRating*rating + wLowCancel*(1-cancel))
}

// workloadScore represents current availability: 1 with no active jobs,
// linearly down to 0 at the concurrency ceiling.
func (s *Scorer) workloadScore(jobs []schema.Job, detail map[string]float64) float64 {
	active := 0
	for _, j := range jobs {
		if j.Status.IsActive() {
			active++
		}
	}
	detail[schema.DetailActiveJobs] = float64(active)

	score := 1 - float64(active)/float64(s.cfg.MaxConcurrentJobs)
	if score < 0 {
		return 0
	}
	return score
}

// qualityScore blends on-time completion, customer satisfaction and the
// pluggable dimension sub-scorers.
func (s *Scorer) qualityScore(ctx context.Context, c *schema.Contractor, hist contractorHistory, detail map[string]float64) (float64, error) {
	onTime := onTimeCompletionRate(hist.jobs)
	satisfaction := averageReviewRating(hist.reviews) / 5.0
	detail[schema.DetailAvgRating] = averageReviewRating(hist.reviews)

	dimScores := make(map[string]float64, len(s.dims))
	for name, dim := range s.dims {
		v, err := dim.Score(ctx, c)
		if err != nil {
			return 0, err
		}
		dimScores[name] = clamp01(v)
		detail[name] = dimScores[name]
	}

	return clamp01(wQualOnTime*onTime +
		wQualSatisfaction*satisfaction +
		wQualCommunication*dimScores[DimCommunication] +
		wQualWorkmanship*dimScores[DimWorkmanship] +
		wQualSafety*dimScores[DimSafety]), nil
}

// priceScore compares the contractor's historical quote level against the
// predicted fair price for the job. Missing history on either side yields
// the neutral prior.
func (s *Scorer) priceScore(ctx context.Context, job *schema.Job, quotes []schema.Quote, detail map[string]float64) float64 {
	if len(quotes) == 0 {
		return neutralPriceScore
	}

	var sum float64
	for _, q := range quotes {
		sum += q.Amount
	}
	avgQuote := sum / float64(len(quotes))
	detail[schema.DetailAvgQuote] = avgQuote

	prediction, err := s.predictor.Predict(ctx, job)
	if err != nil {
		if !errors.Is(err, contract.ErrMissingTradeInfo) && !errors.Is(err, contract.ErrNoHistoricalData) {
			s.log.Debug("price prediction unavailable for scoring",
				zap.Int64("job_id", job.ID), zap.Error(err))
		}
		return neutralPriceScore
	}
	if prediction.EstimatedPrice <= 0 {
		return neutralPriceScore
	}
	detail[schema.DetailPredictedPrice] = prediction.EstimatedPrice

	deviation := avgQuote - prediction.EstimatedPrice
	if deviation < 0 {
		deviation = -deviation
	}
	return clamp01(1 - deviation/prediction.EstimatedPrice)
}

// Candidate is a contractor that passed the radius and rating filters,
// carrying its precomputed distance to the job site.
type Candidate struct {
	Contractor schema.Contractor
	DistanceKm float64
}

// ScoreBatch scores all candidates concurrently on a bounded worker pool.
// A failure scoring one contractor drops that contractor from the result and
// is logged and counted; it never fails the batch.
func (s *Scorer) ScoreBatch(ctx context.Context, job *schema.Job, candidates []Candidate) []schema.ContractorScore {
	candidateCh := make(chan Candidate, len(candidates))
	resultCh := make(chan schema.ContractorScore, len(candidates))

	var wg sync.WaitGroup
	var dropped atomic.Int64

	workers := s.cfg.ScoreWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	for range workers {
		wg.Go(func() {
			for cand := range candidateCh {
				score, err := s.Score(ctx, job, &cand.Contractor, cand.DistanceKm)
				if err != nil {
					dropped.Add(1)
					s.log.Warn("scoring failed, dropping contractor",
						zap.Int64("contractor_id", cand.Contractor.ID),
						zap.Int64("job_id", job.ID),
						zap.Error(err))
					continue
				}
				resultCh <- score
			}
		})
	}

	for _, cand := range candidates {
		candidateCh <- cand
	}
	close(candidateCh)

	wg.Wait()
	close(resultCh)

	scores := make([]schema.ContractorScore, 0, len(candidates))
	for score := range resultCh {
		scores = append(scores, score)
	}
	if n := dropped.Load(); n > 0 {
		s.log.Info("batch completed with dropped contractors",
			zap.Int64("job_id", job.ID), zap.Int64("dropped", n))
	}
	return scores
}

// PriceCompetitiveness is the job-independent variant used by the metrics
// tracker: the contractor's average quote against the marketwide average.
func (s *Scorer) PriceCompetitiveness(ctx context.Context, contractorID int64) (float64, error) {
	quotes, err := contract.Retry(ctx, s.cfg, func() ([]schema.Quote, error) {
		return s.store.GetQuotesByContractor(ctx, contractorID)
	})
	if err != nil {
		return 0, err
	}
	if len(quotes) == 0 {
		return neutralPriceScore, nil
	}

	jobs, err := contract.Retry(ctx, s.cfg, func() ([]schema.Job, error) {
		return s.store.GetAllJobs(ctx)
	})
	if err != nil {
		return 0, err
	}

	var quoteSum float64
	for _, q := range quotes {
		quoteSum += q.Amount
	}
	avgQuote := quoteSum / float64(len(quotes))

	var costSum float64
	costs := 0
	for _, j := range jobs {
		if j.Status == schema.JobStatusCompleted && j.ActualCost > 0 {
			costSum += j.ActualCost
			costs++
		}
	}
	if costs == 0 {
		return neutralPriceScore, nil
	}
	marketAvg := costSum / float64(costs)

	deviation := avgQuote - marketAvg
	if deviation < 0 {
		deviation = -deviation
	}
	return clamp01(1 - deviation/marketAvg), nil
}

// --- history-derived rates, all safe on zero samples ---

func onTimeCompletionRate(jobs []schema.Job) float64 {
	completed, onTime := 0, 0
	for _, j := range jobs {
		if j.Status != schema.JobStatusCompleted || j.CompletedAt == nil {
			continue
		}
		completed++
		if j.ScheduledAt == nil || !j.CompletedAt.After(j.ScheduledAt.Add(onTimeGrace)) {
			onTime++
		}
	}
	if completed == 0 {
		return 0
	}
	return float64(onTime) / float64(completed)
}

func quickQuoteResponseRate(quotes []schema.Quote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	quick := 0
	for _, q := range quotes {
		if q.JobPostedAt.IsZero() {
			continue
		}
		if q.CreatedAt.Sub(q.JobPostedAt) <= quickResponseWindow {
			quick++
		}
	}
	return float64(quick) / float64(len(quotes))
}

func averageReviewRating(reviews []schema.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += float64(r.Rating)
	}
	return sum / float64(len(reviews))
}

func cancellationRate(jobs []schema.Job) float64 {
	if len(jobs) == 0 {
		return 0
	}
	cancelled := 0
	for _, j := range jobs {
		if j.Status == schema.JobStatusCancelled {
			cancelled++
		}
	}
	return float64(cancelled) / float64(len(jobs))
}

// lastJobTime returns the most recent activity timestamp across the
// contractor's jobs, zero when there are none.
func lastJobTime(jobs []schema.Job) time.Time {
	var last time.Time
	for _, j := range jobs {
		t := j.CreatedAt
		if j.CompletedAt != nil && j.CompletedAt.After(t) {
			t = *j.CompletedAt
		}
		if t.After(last) {
			last = t
		}
	}
	return last
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

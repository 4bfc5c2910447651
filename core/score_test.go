package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/datastore"
	"github.com/tradecrew/matchengine/schema"
)

func newTestScorer(store *datastore.MockStore, clock *fakeClock) *Scorer {
	cfg := testConfig()
	log := zap.NewNop()
	predictor := NewPredictor(cfg, store, clock.Now, log)
	return NewScorer(cfg, store, predictor, nil, clock.Now, log)
}

// TestOnTimeCompletionRate covers the 24h grace window and zero samples.
func TestOnTimeCompletionRate(t *testing.T) {
	sched := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	onTime := sched.Add(20 * time.Hour)
	late := sched.Add(25 * time.Hour)

	tests := []struct {
		name     string
		jobs     []schema.Job
		expected float64
	}{
		{
			name:     "no jobs",
			jobs:     nil,
			expected: 0,
		},
		{
			name: "within grace",
			jobs: []schema.Job{
				{Status: schema.JobStatusCompleted, ScheduledAt: &sched, CompletedAt: &onTime},
			},
			expected: 1,
		},
		{
			name: "past grace",
			jobs: []schema.Job{
				{Status: schema.JobStatusCompleted, ScheduledAt: &sched, CompletedAt: &late},
			},
			expected: 0,
		},
		{
			name: "unscheduled completion counts as on time",
			jobs: []schema.Job{
				{Status: schema.JobStatusCompleted, CompletedAt: &late},
			},
			expected: 1,
		},
		{
			name: "incomplete jobs ignored",
			jobs: []schema.Job{
				{Status: schema.JobStatusOpen},
				{Status: schema.JobStatusCompleted, ScheduledAt: &sched, CompletedAt: &onTime},
				{Status: schema.JobStatusCompleted, ScheduledAt: &sched, CompletedAt: &late},
			},
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, onTimeCompletionRate(tt.jobs), 1e-9)
		})
	}
}

// TestQuickQuoteResponseRate covers the 2h response window.
func TestQuickQuoteResponseRate(t *testing.T) {
	posted := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		quotes   []schema.Quote
		expected float64
	}{
		{
			name:     "no quotes",
			quotes:   nil,
			expected: 0,
		},
		{
			name: "half quick",
			quotes: []schema.Quote{
				{CreatedAt: posted.Add(time.Hour), JobPostedAt: posted},
				{CreatedAt: posted.Add(3 * time.Hour), JobPostedAt: posted},
			},
			expected: 0.5,
		},
		{
			name: "unknown posting time never counts",
			quotes: []schema.Quote{
				{CreatedAt: posted.Add(time.Minute)},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, quickQuoteResponseRate(tt.quotes), 1e-9)
		})
	}
}

// TestCancellationRate checks the cancelled-over-total ratio.
func TestCancellationRate(t *testing.T) {
	assert.Zero(t, cancellationRate(nil))
	jobs := []schema.Job{
		{Status: schema.JobStatusCancelled},
		{Status: schema.JobStatusCompleted},
		{Status: schema.JobStatusCompleted},
		{Status: schema.JobStatusOpen},
	}
	assert.InDelta(t, 0.25, cancellationRate(jobs), 1e-9)
}

// TestWorkloadScore maps active jobs linearly down to zero availability.
func TestWorkloadScore(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock) // MaxConcurrentJobs 5

	makeJobs := func(active int) []schema.Job {
		jobs := make([]schema.Job, 0, active)
		for range active {
			jobs = append(jobs, schema.Job{Status: schema.JobStatusInProgress})
		}
		return jobs
	}

	tests := []struct {
		name     string
		active   int
		expected float64
	}{
		{name: "idle", active: 0, expected: 1},
		{name: "partial load", active: 2, expected: 0.6},
		{name: "at capacity", active: 5, expected: 0},
		{name: "over capacity", active: 7, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := make(map[string]float64)
			got := s.workloadScore(makeJobs(tt.active), detail)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.Equal(t, float64(tt.active), detail[schema.DetailActiveJobs])
		})
	}
}

// TestScoreNoHistory checks the defaults for a brand-new contractor: full
// availability, neutral price, and quality from the static dimensions only.
func TestScoreNoHistory(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock)

	c := schema.Contractor{ID: 1, Name: "Fresh Plumbing", Rating: 4.0, Active: true}
	store.AddContractor(c)

	job := &schema.Job{ID: 10, TradeID: 1, Location: "Portland"}
	score, err := s.Score(context.Background(), job, &c, 12.5)
	require.NoError(t, err)

	// Reliability reduces to the low-cancellation component with no history.
	assert.InDelta(t, 0.2, score.Reliability, 1e-9)
	assert.InDelta(t, 1.0, score.Workload, 1e-9)
	// Quality holds only the static communication/workmanship/safety terms.
	assert.InDelta(t, 0.41, score.Quality, 1e-9)
	assert.InDelta(t, neutralPriceScore, score.Price, 1e-9)

	assert.InDelta(t, 0.483, score.MatchScore, 1e-9)
	assert.Equal(t, 12.5, score.DistanceKm)
	assert.True(t, score.LastJobAt.IsZero())
	assert.Equal(t, clock.Now(), score.UpdatedAt)
}

// TestScoreWithHistory exercises the full blend with a mixed track record.
func TestScoreWithHistory(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock)

	sched := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	onTime := sched.Add(4 * time.Hour)
	late := sched.Add(48 * time.Hour)
	posted := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	c := schema.Contractor{ID: 7, Name: "Rivera Plumbing", Rating: 4.8, Active: true}
	store.AddContractor(c)
	store.AddJob(schema.Job{ID: 1, ContractorID: 7, Status: schema.JobStatusCompleted, CreatedAt: posted, ScheduledAt: &sched, CompletedAt: &onTime})
	store.AddJob(schema.Job{ID: 2, ContractorID: 7, Status: schema.JobStatusCompleted, CreatedAt: posted, ScheduledAt: &sched, CompletedAt: &late})
	store.AddJob(schema.Job{ID: 3, ContractorID: 7, Status: schema.JobStatusCancelled, CreatedAt: posted})
	store.AddJob(schema.Job{ID: 4, ContractorID: 7, Status: schema.JobStatusInProgress, CreatedAt: posted})
	store.AddReview(schema.Review{ID: 1, ContractorID: 7, Rating: 4})
	store.AddReview(schema.Review{ID: 2, ContractorID: 7, Rating: 5})
	store.AddQuote(schema.Quote{ID: 1, JobID: 1, ContractorID: 7, Amount: 400, CreatedAt: posted.Add(time.Hour), JobPostedAt: posted})
	store.AddQuote(schema.Quote{ID: 2, JobID: 2, ContractorID: 7, Amount: 600, CreatedAt: posted.Add(5 * time.Hour), JobPostedAt: posted})

	// TradeID 0 keeps the price prediction out of play: neutral price.
	job := &schema.Job{ID: 99, Location: "Portland"}
	score, err := s.Score(context.Background(), job, &c, 5)
	require.NoError(t, err)

	// on-time 0.5, quick 0.5, rating 0.9, cancel 0.25
	assert.InDelta(t, 0.67, score.Reliability, 1e-9)
	assert.InDelta(t, 0.8, score.Workload, 1e-9) // one active of five
	assert.InDelta(t, 0.76, score.Quality, 1e-9)
	assert.InDelta(t, neutralPriceScore, score.Price, 1e-9)
	assert.InDelta(t, 0.689, score.MatchScore, 1e-9)

	assert.Equal(t, late, score.LastJobAt, "latest completion drives rotation")
	assert.InDelta(t, 0.5, score.Detail[schema.DetailOnTimeRate], 1e-9)
	assert.InDelta(t, 0.25, score.Detail[schema.DetailCancellationRate], 1e-9)
	assert.InDelta(t, 4.5, score.Detail[schema.DetailAvgRating], 1e-9)
	assert.InDelta(t, 500, score.Detail[schema.DetailAvgQuote], 1e-9)
}

// TestScoreCustomDimension swaps one static quality dimension.
func TestScoreCustomDimension(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg := testConfig()
	log := zap.NewNop()
	predictor := NewPredictor(cfg, store, clock.Now, log)

	dims := defaultQualityDimensions()
	dims[DimSafety] = StaticDimension(0.0)
	s := NewScorer(cfg, store, predictor, dims, clock.Now, log)

	c := schema.Contractor{ID: 1, Rating: 4.0, Active: true}
	score, err := s.Score(context.Background(), &schema.Job{ID: 10}, &c, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.32, score.Quality, 1e-9) // safety term removed
	assert.Zero(t, score.Detail[schema.DetailSafety])
}

// TestScoreBatch scores every candidate on the worker pool.
func TestScoreBatch(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock)

	var candidates []Candidate
	for i := int64(1); i <= 20; i++ {
		c := schema.Contractor{ID: i, Rating: 4.0, Active: true}
		store.AddContractor(c)
		candidates = append(candidates, Candidate{Contractor: c, DistanceKm: float64(i)})
	}

	scores := s.ScoreBatch(context.Background(), &schema.Job{ID: 10}, candidates)
	require.Len(t, scores, 20)

	seen := make(map[int64]bool)
	for _, sc := range scores {
		seen[sc.Contractor.ID] = true
	}
	assert.Len(t, seen, 20, "every candidate scored exactly once")
}

// TestScoreBatchDropsFailures verifies one contractor's failure never fails
// the batch.
func TestScoreBatchDropsFailures(t *testing.T) {
	store := datastore.NewMockStore()
	store.Err = errors.New("store offline")
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock)

	candidates := []Candidate{
		{Contractor: schema.Contractor{ID: 1, Rating: 4.0, Active: true}},
		{Contractor: schema.Contractor{ID: 2, Rating: 4.0, Active: true}},
	}
	scores := s.ScoreBatch(context.Background(), &schema.Job{ID: 10}, candidates)
	assert.Empty(t, scores, "failed contractors are dropped, not raised")
}

// TestPriceCompetitiveness compares quote levels against the market average.
func TestPriceCompetitiveness(t *testing.T) {
	store := datastore.NewMockStore()
	clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScorer(store, clock)
	ctx := context.Background()

	t.Run("no quotes is neutral", func(t *testing.T) {
		got, err := s.PriceCompetitiveness(ctx, 1)
		require.NoError(t, err)
		assert.InDelta(t, neutralPriceScore, got, 1e-9)
	})

	store.AddJob(schema.Job{ID: 1, Status: schema.JobStatusCompleted, ActualCost: 1000})
	store.AddQuote(schema.Quote{ID: 1, JobID: 1, ContractorID: 2, Amount: 900})

	t.Run("near market", func(t *testing.T) {
		got, err := s.PriceCompetitiveness(ctx, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.9, got, 1e-9) // 10% deviation from the 1000 average
	})
}

// TestClamp01 pins the clamping boundaries.
func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 0.25, clamp01(0.25))
	assert.Equal(t, 1.0, clamp01(1.5))
}

package datastore

import (
	"context"
	"sync"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// MockStore is an in-memory DataStore and MatchLogStore for tests and demos.
// All methods are safe for concurrent use.
type MockStore struct {
	mu          sync.RWMutex
	jobs        map[int64]schema.Job
	contractors map[int64]schema.Contractor
	quotes      []schema.Quote
	reviews     []schema.Review
	slots       []schema.ScheduleSlot

	runs   []schema.MatchRun
	scores []schema.MatchScoreRecord

	// Err, when set, is returned by every read. Used to exercise retry and
	// failure-isolation paths.
	Err error
}

var (
	_ contract.DataStore     = (*MockStore)(nil)
	_ contract.MatchLogStore = (*MockStore)(nil)
)

// NewMockStore returns an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		jobs:        make(map[int64]schema.Job),
		contractors: make(map[int64]schema.Contractor),
	}
}

// AddJob inserts or replaces a job.
func (m *MockStore) AddJob(j schema.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
}

// AddContractor inserts or replaces a contractor.
func (m *MockStore) AddContractor(c schema.Contractor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contractors[c.ID] = c
}

// AddQuote appends a quote.
func (m *MockStore) AddQuote(q schema.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, q)
}

// AddReview appends a review.
func (m *MockStore) AddReview(r schema.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, r)
}

// AddScheduleSlot appends a schedule slot.
func (m *MockStore) AddScheduleSlot(s schema.ScheduleSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = append(m.slots, s)
}

func (m *MockStore) GetJob(_ context.Context, id int64) (*schema.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (m *MockStore) GetAllJobs(_ context.Context) ([]schema.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]schema.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *MockStore) GetContractorsByTrade(_ context.Context, tradeID int64) ([]schema.Contractor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Contractor
	for _, c := range m.contractors {
		for _, tp := range c.Trades {
			if tp.TradeID == tradeID {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (m *MockStore) GetActiveContractors(_ context.Context) ([]schema.Contractor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Contractor
	for _, c := range m.contractors {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockStore) GetJobsByContractor(_ context.Context, contractorID int64) ([]schema.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Job
	for _, j := range m.jobs {
		if j.ContractorID == contractorID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *MockStore) GetReviewsByContractor(_ context.Context, contractorID int64) ([]schema.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Review
	for _, r := range m.reviews {
		if r.ContractorID == contractorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) GetQuotesByContractor(_ context.Context, contractorID int64) ([]schema.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Quote
	for _, q := range m.quotes {
		if q.ContractorID == contractorID {
			out = append(out, m.withJobPostedAt(q))
		}
	}
	return out, nil
}

func (m *MockStore) GetQuotesByJob(_ context.Context, jobID int64) ([]schema.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.Quote
	for _, q := range m.quotes {
		if q.JobID == jobID {
			out = append(out, m.withJobPostedAt(q))
		}
	}
	return out, nil
}

// withJobPostedAt mirrors the SQL store's join: quotes carry the posting time
// of their job.
func (m *MockStore) withJobPostedAt(q schema.Quote) schema.Quote {
	if q.JobPostedAt.IsZero() {
		if j, ok := m.jobs[q.JobID]; ok {
			q.JobPostedAt = j.CreatedAt
		}
	}
	return q
}

func (m *MockStore) GetScheduleSlotsByContractor(_ context.Context, contractorID int64) ([]schema.ScheduleSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schema.ScheduleSlot
	for _, s := range m.slots {
		if s.ContractorID == contractorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockStore) BeginMatchRun(_ context.Context, run schema.MatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MockStore) RecordScores(_ context.Context, records []schema.MatchScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, records...)
	return nil
}

func (m *MockStore) EndMatchRun(_ context.Context, runID string, endedAt int64, selected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].RunID == runID {
			m.runs[i].SelectedCount = selected
		}
	}
	return nil
}

func (m *MockStore) GetAllRuns(_ context.Context) ([]schema.MatchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schema.MatchRun, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

func (m *MockStore) GetAllScores(_ context.Context) ([]schema.MatchScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schema.MatchScoreRecord, len(m.scores))
	copy(out, m.scores)
	return out, nil
}

func (m *MockStore) GetStatus() (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return schema.StoreStatus{
		Backend:   "mock",
		Connected: true,
		TableSizes: map[string]int64{
			"jobs":         int64(len(m.jobs)),
			"contractors":  int64(len(m.contractors)),
			"quotes":       int64(len(m.quotes)),
			"reviews":      int64(len(m.reviews)),
			"match_runs":   int64(len(m.runs)),
			"match_scores": int64(len(m.scores)),
		},
	}, nil
}

func (m *MockStore) Close() error { return nil }

// Package contract provides interfaces and shared utilities for the
// matchengine's internal architecture.
package contract

import (
	"context"

	"github.com/tradecrew/matchengine/schema"
)

// DataStore is the external marketplace data the engine consumes. Persistent
// storage of jobs, users, quotes and reviews lives outside the engine; this
// interface is the whole surface the engine sees, which also allows the
// store to be mocked for testing.
type DataStore interface {
	GetJob(ctx context.Context, id int64) (*schema.Job, error)
	GetAllJobs(ctx context.Context) ([]schema.Job, error)
	GetContractorsByTrade(ctx context.Context, tradeID int64) ([]schema.Contractor, error)
	GetActiveContractors(ctx context.Context) ([]schema.Contractor, error)
	GetJobsByContractor(ctx context.Context, contractorID int64) ([]schema.Job, error)
	GetReviewsByContractor(ctx context.Context, contractorID int64) ([]schema.Review, error)
	GetQuotesByContractor(ctx context.Context, contractorID int64) ([]schema.Quote, error)
	GetQuotesByJob(ctx context.Context, jobID int64) ([]schema.Quote, error)
	GetScheduleSlotsByContractor(ctx context.Context, contractorID int64) ([]schema.ScheduleSlot, error)
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (schema.GeoPoint, error)
}

// MatchLogStore records completed match runs for offline analysis.
// This allows the match-log layer to be mocked for testing.
type MatchLogStore interface {
	BeginMatchRun(ctx context.Context, run schema.MatchRun) error
	RecordScores(ctx context.Context, records []schema.MatchScoreRecord) error
	EndMatchRun(ctx context.Context, runID string, endedAt int64, selected int) error
	GetAllRuns(ctx context.Context) ([]schema.MatchRun, error)
	GetAllScores(ctx context.Context) ([]schema.MatchScoreRecord, error)
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

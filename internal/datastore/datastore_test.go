package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrew/matchengine/schema"
)

// TestRebind rewrites placeholders for PostgreSQL only.
func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		backend  schema.DatabaseBackend
		query    string
		expected string
	}{
		{
			name:     "sqlite untouched",
			backend:  schema.SQLiteBackend,
			query:    "SELECT * FROM jobs WHERE id = ? AND trade_id = ?",
			expected: "SELECT * FROM jobs WHERE id = ? AND trade_id = ?",
		},
		{
			name:     "mysql untouched",
			backend:  schema.MySQLBackend,
			query:    "INSERT INTO quotes VALUES (?, ?)",
			expected: "INSERT INTO quotes VALUES (?, ?)",
		},
		{
			name:     "postgres numbered",
			backend:  schema.PostgreSQLBackend,
			query:    "UPDATE match_runs SET ended_at = ?, selected_count = ? WHERE run_id = ?",
			expected: "UPDATE match_runs SET ended_at = $1, selected_count = $2 WHERE run_id = $3",
		},
		{
			name:     "postgres no placeholders",
			backend:  schema.PostgreSQLBackend,
			query:    "SELECT COUNT(*) FROM jobs",
			expected: "SELECT COUNT(*) FROM jobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SQLStore{backend: tt.backend}
			assert.Equal(t, tt.expected, s.rebind(tt.query))
		})
	}
}

// TestNewRejectsUnknownBackend fails fast on unsupported backends.
func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("oracle", "")
	assert.Error(t, err)
}

// TestNoneBackend yields empty reads, dropped writes and a disconnected
// status.
func TestNoneBackend(t *testing.T) {
	store, err := New(schema.NoneBackend, "")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	job, err := store.GetJob(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, job)

	contractors, err := store.GetActiveContractors(ctx)
	require.NoError(t, err)
	assert.Empty(t, contractors)

	assert.NoError(t, store.BeginMatchRun(ctx, schema.MatchRun{RunID: "r1"}))
	runs, err := store.GetAllRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

// newSQLiteStore migrates a throwaway SQLite database and opens a store on it.
func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matchengine.db")
	require.NoError(t, Migrate(schema.SQLiteBackend, path, -1))

	store, err := New(schema.SQLiteBackend, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestSQLiteRoundTrip seeds the demo dataset and reads it back through every
// query the engine uses.
func TestSQLiteRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.SeedDemo(ctx))

	t.Run("jobs", func(t *testing.T) {
		job, err := store.GetJob(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "Leaking kitchen faucet", job.Title)
		assert.Equal(t, schema.JobStatusOpen, job.Status)
		assert.Nil(t, job.CompletedAt)

		done, err := store.GetJob(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, done)
		assert.Equal(t, schema.JobStatusCompleted, done.Status)
		require.NotNil(t, done.CompletedAt)
		assert.Equal(t, 1250.0, done.ActualCost)

		missing, err := store.GetJob(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, missing)

		all, err := store.GetAllJobs(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		mine, err := store.GetJobsByContractor(ctx, 1)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, int64(2), mine[0].ID)
	})

	t.Run("contractors", func(t *testing.T) {
		plumbers, err := store.GetContractorsByTrade(ctx, 1)
		require.NoError(t, err)
		require.Len(t, plumbers, 3)
		assert.Equal(t, "Rivera Plumbing", plumbers[0].Name)
		require.NotNil(t, plumbers[0].Coordinates)
		assert.InDelta(t, 45.52, plumbers[0].Coordinates.Lat, 1e-6)
		require.Len(t, plumbers[0].Trades, 1)
		assert.Equal(t, int64(1), plumbers[0].Trades[0].TradeID)
		assert.True(t, plumbers[0].Trades[0].Verified)

		active, err := store.GetActiveContractors(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 4)
	})

	t.Run("quotes carry job posting time", func(t *testing.T) {
		quotes, err := store.GetQuotesByContractor(ctx, 1)
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, 1200.0, quotes[0].Amount)

		job, err := store.GetJob(ctx, quotes[0].JobID)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, job.CreatedAt, quotes[0].JobPostedAt)

		byJob, err := store.GetQuotesByJob(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, byJob, 2)
	})

	t.Run("reviews", func(t *testing.T) {
		reviews, err := store.GetReviewsByContractor(ctx, 1)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, 5, reviews[0].Rating)
		assert.Equal(t, "Fast and tidy", reviews[0].Comment)
	})

	t.Run("schedule slots", func(t *testing.T) {
		start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
		require.NoError(t, store.InsertScheduleSlot(ctx, schema.ScheduleSlot{
			ID: 1, ContractorID: 1, Start: start, End: start.Add(3 * time.Hour), Committed: true,
		}))

		slots, err := store.GetScheduleSlotsByContractor(ctx, 1)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, start, slots[0].Start)
		assert.True(t, slots[0].Committed)

		none, err := store.GetScheduleSlotsByContractor(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

// TestSQLiteMatchLog records a run with its scores and finalizes it.
func TestSQLiteMatchLog(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	started := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	ended := started.Add(200 * time.Millisecond).Truncate(time.Second)
	require.NoError(t, store.BeginMatchRun(ctx, schema.MatchRun{
		RunID: "run-1", JobID: 1, StartedAt: started, EndedAt: started,
		CandidateCount: 3, SelectedCount: 0,
	}))

	records := []schema.MatchScoreRecord{
		{RunID: "run-1", ContractorID: 1, Rank: 1, MatchScore: 0.9, DistanceKm: 2.5, Tier: "top", RecordedAt: ended},
		{RunID: "run-1", ContractorID: 2, Rank: 2, MatchScore: 0.7, DistanceKm: 8.0, Tier: "good", RecordedAt: ended},
	}
	require.NoError(t, store.RecordScores(ctx, records))
	require.NoError(t, store.EndMatchRun(ctx, "run-1", ended.Unix(), len(records)))

	runs, err := store.GetAllRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, 3, runs[0].CandidateCount)
	assert.Equal(t, 2, runs[0].SelectedCount)
	assert.Equal(t, ended.Unix(), runs[0].EndedAt.Unix())

	scores, err := store.GetAllScores(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 1, scores[0].Rank)
	assert.Equal(t, "top", scores[0].Tier)
	assert.Equal(t, 2, scores[1].Rank)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(1), status.TableSizes["match_runs"])
	assert.Equal(t, int64(2), status.TableSizes["match_scores"])
}

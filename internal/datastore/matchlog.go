package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecrew/matchengine/schema"
)

// Match-log operations. Each match run is recorded as one row in match_runs
// plus one row per selected contractor in match_scores. Writes are dropped on
// NoneBackend so recording can stay enabled unconditionally in the engine.

// BeginMatchRun inserts the run row. EndedAt and SelectedCount are written as
// provisional values and finalized by EndMatchRun.
func (s *SQLStore) BeginMatchRun(ctx context.Context, run schema.MatchRun) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(`
		INSERT INTO match_runs (run_id, job_id, started_at, ended_at, candidate_count, selected_count)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		run.RunID, run.JobID, run.StartedAt.Unix(), run.EndedAt.Unix(),
		run.CandidateCount, run.SelectedCount)
	if err != nil {
		return fmt.Errorf("failed to insert match run %s: %w", run.RunID, err)
	}
	return nil
}

// RecordScores inserts the per-contractor score rows for a run in one
// transaction.
func (s *SQLStore) RecordScores(ctx context.Context, records []schema.MatchScoreRecord) error {
	if s.db == nil || len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin score transaction: %w", err)
	}
	query := s.rebind(`
		INSERT INTO match_scores
			(run_id, contractor_id, rank_num, reliability, workload, quality, price,
			 match_score, distance_km, tier, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query,
			r.RunID, r.ContractorID, r.Rank, r.Reliability, r.Workload, r.Quality,
			r.Price, r.MatchScore, r.DistanceKm, r.Tier, r.RecordedAt.Unix()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert match score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match scores: %w", err)
	}
	return nil
}

// EndMatchRun finalizes a run's end time and selected count.
func (s *SQLStore) EndMatchRun(ctx context.Context, runID string, endedAt int64, selected int) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(`UPDATE match_runs SET ended_at = ?, selected_count = ? WHERE run_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, endedAt, selected, runID); err != nil {
		return fmt.Errorf("failed to finalize match run %s: %w", runID, err)
	}
	return nil
}

// GetAllRuns returns every recorded match run, most recent first.
func (s *SQLStore) GetAllRuns(ctx context.Context) ([]schema.MatchRun, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, job_id, started_at, ended_at, candidate_count, selected_count
		FROM match_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.MatchRun
	for rows.Next() {
		var run schema.MatchRun
		var started, ended int64
		if err := rows.Scan(&run.RunID, &run.JobID, &started, &ended,
			&run.CandidateCount, &run.SelectedCount); err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.EndedAt = time.Unix(ended, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetAllScores returns every recorded score row, grouped by run then rank.
func (s *SQLStore) GetAllScores(ctx context.Context) ([]schema.MatchScoreRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, contractor_id, rank_num, reliability, workload, quality, price,
		       match_score, distance_km, tier, recorded_at
		FROM match_scores ORDER BY run_id, rank_num`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.MatchScoreRecord
	for rows.Next() {
		var r schema.MatchScoreRecord
		var recordedAt int64
		if err := rows.Scan(&r.RunID, &r.ContractorID, &r.Rank, &r.Reliability,
			&r.Workload, &r.Quality, &r.Price, &r.MatchScore, &r.DistanceKm,
			&r.Tier, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match score: %w", err)
		}
		r.RecordedAt = time.Unix(recordedAt, 0).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetStatus reports connection state and per-table row counts.
func (s *SQLStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	status.TableSizes = make(map[string]int64)
	for _, table := range []string{
		"jobs", "contractors", "contractor_trades", "quotes", "reviews",
		"schedule_slots", "match_runs", "match_scores",
	} {
		var count int64
		row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to count %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

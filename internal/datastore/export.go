package datastore

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/tradecrew/matchengine/schema"
)

// Parquet export of the match log, for loading runs into offline analysis
// tools without touching the live database.

// RunRecord is the parquet row shape for one match run.
type RunRecord struct {
	RunID          string    `parquet:"run_id,snappy"`
	JobID          int64     `parquet:"job_id,snappy"`
	StartedAt      time.Time `parquet:"started_at,snappy"`
	EndedAt        time.Time `parquet:"ended_at,snappy"`
	CandidateCount int32     `parquet:"candidate_count,snappy"`
	SelectedCount  int32     `parquet:"selected_count,snappy"`
}

// ScoreRecord is the parquet row shape for one contractor's scored position.
type ScoreRecord struct {
	RunID        string    `parquet:"run_id,snappy"`
	ContractorID int64     `parquet:"contractor_id,snappy"`
	Rank         int32     `parquet:"rank,snappy"`
	Reliability  float64   `parquet:"reliability,snappy"`
	Workload     float64   `parquet:"workload,snappy"`
	Quality      float64   `parquet:"quality,snappy"`
	Price        float64   `parquet:"price,snappy"`
	MatchScore   float64   `parquet:"match_score,snappy"`
	DistanceKm   float64   `parquet:"distance_km,snappy"`
	Tier         string    `parquet:"tier,snappy"`
	RecordedAt   time.Time `parquet:"recorded_at,snappy"`
}

// ToRunRecords converts match runs to their parquet row shape.
func ToRunRecords(runs []schema.MatchRun) []RunRecord {
	out := make([]RunRecord, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunRecord{
			RunID:          r.RunID,
			JobID:          r.JobID,
			StartedAt:      r.StartedAt,
			EndedAt:        r.EndedAt,
			CandidateCount: int32(r.CandidateCount),
			SelectedCount:  int32(r.SelectedCount),
		})
	}
	return out
}

// ToScoreRecords converts score rows to their parquet row shape.
func ToScoreRecords(scores []schema.MatchScoreRecord) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(scores))
	for _, s := range scores {
		out = append(out, ScoreRecord{
			RunID:        s.RunID,
			ContractorID: s.ContractorID,
			Rank:         int32(s.Rank),
			Reliability:  s.Reliability,
			Workload:     s.Workload,
			Quality:      s.Quality,
			Price:        s.Price,
			MatchScore:   s.MatchScore,
			DistanceKm:   s.DistanceKm,
			Tier:         s.Tier,
			RecordedAt:   s.RecordedAt,
		})
	}
	return out
}

// WriteRunsParquet writes match runs to a Parquet file. The schema is
// inferred from the RunRecord struct tags.
func WriteRunsParquet(runs []RunRecord, outputPath string) error {
	return writeParquet(runs, outputPath)
}

// WriteScoresParquet writes score rows to a Parquet file.
func WriteScoresParquet(scores []ScoreRecord, outputPath string) error {
	return writeParquet(scores, outputPath)
}

func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

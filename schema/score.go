package schema

import "time"

// ContractorScore is the per-contractor snapshot produced for one match run.
// It is ephemeral: recomputed per match or served from the result cache,
// never persisted as state (the match log keeps an audit copy).
type ContractorScore struct {
	Contractor Contractor `json:"contractor"`

	Reliability float64 `json:"reliability"`
	Workload    float64 `json:"workload"`
	Quality     float64 `json:"quality"`
	Price       float64 `json:"price"`

	// MatchScore is the configured convex combination of the four
	// sub-scores, clamped to [0,1].
	MatchScore float64 `json:"match_score"`

	DistanceKm float64 `json:"distance_km"`

	// LastJobAt is the timestamp of the contractor's most recent job,
	// zero when the contractor has never worked. Drives fairness rotation.
	LastJobAt time.Time `json:"last_job_at"`

	Tier Tier `json:"tier"`

	// Detail holds the raw inputs behind each sub-score for explain output.
	Detail map[string]float64 `json:"detail,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ContractorMetrics is the process-lifetime snapshot of a contractor's
// sub-scores, kept by the metrics tracker to detect significant change.
type ContractorMetrics struct {
	ContractorID int64                  `json:"contractor_id"`
	Scores       map[MetricType]float64 `json:"scores"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// PriceFactors are the multiplicative adjustments behind a prediction,
// returned for observability.
type PriceFactors struct {
	Trade       float64 `json:"trade"`
	Location    float64 `json:"location"`
	Complexity  float64 `json:"complexity"`
	Seasonality float64 `json:"seasonality"`
}

// PricePrediction is a fair-price estimate for a job derived from
// historical quotes on similar completed jobs.
type PricePrediction struct {
	JobID          int64        `json:"job_id"`
	EstimatedPrice float64      `json:"estimated_price"`
	Confidence     float64      `json:"confidence"`
	Factors        PriceFactors `json:"factors"`
	SampleSize     int          `json:"sample_size"`
}

// MatchResult is the ordered answer to "which contractors should see this
// job right now".
type MatchResult struct {
	RunID       string            `json:"run_id"`
	JobID       int64             `json:"job_id"`
	Contractors []ContractorScore `json:"contractors"`
	GeneratedAt time.Time         `json:"generated_at"`
	Duration    time.Duration     `json:"duration"`

	// FromCache is set on the returned copy, never stored.
	FromCache bool `json:"from_cache"`
}

// MatchRun is one recorded match execution in the match log.
type MatchRun struct {
	RunID          string    `json:"run_id"`
	JobID          int64     `json:"job_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	CandidateCount int       `json:"candidate_count"`
	SelectedCount  int       `json:"selected_count"`
}

// MatchScoreRecord is one contractor's scored position within a recorded run.
type MatchScoreRecord struct {
	RunID        string    `json:"run_id"`
	ContractorID int64     `json:"contractor_id"`
	Rank         int       `json:"rank"`
	Reliability  float64   `json:"reliability"`
	Workload     float64   `json:"workload"`
	Quality      float64   `json:"quality"`
	Price        float64   `json:"price"`
	MatchScore   float64   `json:"match_score"`
	DistanceKm   float64   `json:"distance_km"`
	Tier         string    `json:"tier"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// StoreStatus reports reference-store connection state and table sizes.
type StoreStatus struct {
	Backend    string           `json:"backend"`
	Connected  bool             `json:"connected"`
	TableSizes map[string]int64 `json:"table_sizes,omitempty"`
}

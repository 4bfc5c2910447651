package schema

import "time"

// MetricChangeEvent is emitted when a contractor's tracked sub-score moves
// by more than the configured threshold between sweeps.
type MetricChangeEvent struct {
	ContractorID int64      `json:"contractor_id"`
	Metric       MetricType `json:"metric"`
	OldValue     float64    `json:"old_value"`
	NewValue     float64    `json:"new_value"`
	At           time.Time  `json:"at"`
}

// CacheRevalidationEvent reports the outcome of one background revalidation.
type CacheRevalidationEvent struct {
	Key     string    `json:"key"`
	Success bool      `json:"success"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// MetricsErrorEvent reports an isolated per-contractor failure during a
// metrics sweep.
type MetricsErrorEvent struct {
	ContractorID int64     `json:"contractor_id"`
	Err          string    `json:"error"`
	At           time.Time `json:"at"`
}

package schema

// JobStatus is the lifecycle state of a job.
type JobStatus string

// Job lifecycle states.
const (
	JobStatusOpen       JobStatus = "open"
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsActive reports whether the job currently occupies contractor capacity.
func (s JobStatus) IsActive() bool {
	return s == JobStatusScheduled || s == JobStatusInProgress
}

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

// Quote lifecycle states.
const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// MetricType identifies one of the four tracked sub-scores.
type MetricType string

// Tracked sub-score kinds.
const (
	MetricReliability MetricType = "reliability"
	MetricWorkload    MetricType = "workload"
	MetricQuality     MetricType = "quality"
	MetricPrice       MetricType = "price"
)

// AllMetricTypes lists the tracked metrics in stable order.
var AllMetricTypes = []MetricType{MetricReliability, MetricWorkload, MetricQuality, MetricPrice}

// Tier is a quality/proximity bucket used for fairness-rotated distribution.
type Tier int

// Distribution tiers. Lower value means drawn first.
const (
	TierTop Tier = iota + 1
	TierGood
	TierRest
)

// String returns the human label for the tier.
func (t Tier) String() string {
	switch t {
	case TierTop:
		return "top"
	case TierGood:
		return "good"
	default:
		return "rest"
	}
}

// DatabaseBackend identifies a supported SQL backend for the reference store.
type DatabaseBackend string

// Supported store backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// OutputMode identifies an output format for CLI results.
type OutputMode string

// Supported output formats.
const (
	TextOut OutputMode = "text"
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// Score breakdown keys recorded in ContractorScore.Detail.
const (
	DetailOnTimeRate       = "on_time_rate"
	DetailQuickResponse    = "quick_response_rate"
	DetailAvgRating        = "avg_rating"
	DetailCancellationRate = "cancellation_rate"
	DetailActiveJobs       = "active_jobs"
	DetailCommunication    = "communication"
	DetailWorkmanship      = "workmanship"
	DetailSafety           = "safety"
	DetailAvgQuote         = "avg_quote"
	DetailPredictedPrice   = "predicted_price"
)

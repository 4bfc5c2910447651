// Package schema has configs, models and shared constants for all parts of matchengine.
package schema

import "time"

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Job represents a homeowner's posted job. For matching purposes it is
// immutable except for status transitions owned by the job lifecycle outside
// this engine.
type Job struct {
	ID          int64      `json:"id"`
	HomeownerID int64      `json:"homeowner_id"`
	TradeID     int64      `json:"trade_id"` // 0 means no trade assigned
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"` // free text, resolved to coordinates via Geocoder
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	QuotedCost  float64    `json:"quoted_cost"`
	ActualCost  float64    `json:"actual_cost"`

	// ContractorID is the assigned contractor, 0 when unassigned.
	ContractorID int64 `json:"contractor_id"`
}

// TradeProfile is the Contractor x Trade association.
type TradeProfile struct {
	TradeID         int64 `json:"trade_id"`
	YearsExperience int   `json:"years_experience"`
	Verified        bool  `json:"verified"`
}

// Contractor is a user with the contractor role plus aggregate stats.
type Contractor struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	Coordinates *GeoPoint      `json:"coordinates,omitempty"` // nil until geocoded
	Rating      float64        `json:"rating"`                // aggregate review rating, 0-5
	Active      bool           `json:"active"`
	Trades      []TradeProfile `json:"trades,omitempty"`
}

// Quote is a contractor's bid on a job. JobPostedAt is denormalized by the
// data store (joined from the job row) so response times can be derived
// without a second lookup per quote.
type Quote struct {
	ID           int64       `json:"id"`
	JobID        int64       `json:"job_id"`
	ContractorID int64       `json:"contractor_id"`
	Amount       float64     `json:"amount"`
	Status       QuoteStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	JobPostedAt  time.Time   `json:"job_posted_at"`
}

// Review is a homeowner rating of a completed job.
type Review struct {
	ID           int64     `json:"id"`
	JobID        int64     `json:"job_id"`
	ContractorID int64     `json:"contractor_id"`
	HomeownerID  int64     `json:"homeowner_id"`
	Rating       int       `json:"rating"` // 1-5
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScheduleSlot is a contractor's committed or available time window.
type ScheduleSlot struct {
	ID           int64     `json:"id"`
	ContractorID int64     `json:"contractor_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Committed    bool      `json:"committed"`
}

// Overlaps reports whether the slot covers the given instant.
func (s ScheduleSlot) Overlaps(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

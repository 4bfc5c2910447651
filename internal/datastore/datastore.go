// Package datastore is the SQL-backed reference implementation of the
// engine's data contracts. It supports SQLite, MySQL and PostgreSQL behind
// one query set.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "modernc.org/sqlite"              // SQLite driver

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// SQLStore implements both DataStore and MatchLogStore over a single
// database/sql connection.
type SQLStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var (
	_ contract.DataStore     = (*SQLStore)(nil)
	_ contract.MatchLogStore = (*SQLStore)(nil)
)

// New opens a store for the given backend. NoneBackend yields a store whose
// reads are empty and whose match-log writes are dropped, useful when running
// against an in-memory mock or with logging disabled.
func New(backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		db, err = sql.Open("sqlite", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w", connStr, err)
		}
		// A single connection avoids "database is locked" under concurrency.
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr: user:password@tcp(host:port)/dbname?parseTime=false
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}

	case schema.PostgreSQLBackend:
		// connStr: host=localhost port=5432 user=postgres dbname=matchengine
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

	case schema.NoneBackend:
		return &SQLStore{backend: backend}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	return &SQLStore{db: db, backend: backend, connStr: connStr}, nil
}

// rebind converts ?-style placeholders to the backend's dialect.
func (s *SQLStore) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// nullTime converts a nullable unix-seconds column to *time.Time.
func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func timePtrUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

const jobColumns = `id, homeowner_id, trade_id, title, description, location, status,
	created_at, scheduled_at, completed_at, paid_at, quoted_cost, actual_cost, contractor_id`

func scanJob(row interface{ Scan(...any) error }) (schema.Job, error) {
	var j schema.Job
	var createdAt int64
	var scheduledAt, completedAt, paidAt sql.NullInt64
	err := row.Scan(&j.ID, &j.HomeownerID, &j.TradeID, &j.Title, &j.Description,
		&j.Location, &j.Status, &createdAt, &scheduledAt, &completedAt, &paidAt,
		&j.QuotedCost, &j.ActualCost, &j.ContractorID)
	if err != nil {
		return schema.Job{}, err
	}
	j.CreatedAt = time.Unix(createdAt, 0).UTC()
	j.ScheduledAt = nullTime(scheduledAt)
	j.CompletedAt = nullTime(completedAt)
	j.PaidAt = nullTime(paidAt)
	return j, nil
}

// GetJob returns the job with the given id, or nil when absent.
func (s *SQLStore) GetJob(ctx context.Context, id int64) (*schema.Job, error) {
	if s.db == nil {
		return nil, nil
	}
	query := s.rebind(fmt.Sprintf(`SELECT %s FROM jobs WHERE id = ?`, jobColumns))
	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %d: %w", id, err)
	}
	return &j, nil
}

// GetAllJobs returns every job in the store.
func (s *SQLStore) GetAllJobs(ctx context.Context) ([]schema.Job, error) {
	return s.queryJobs(ctx, fmt.Sprintf(`SELECT %s FROM jobs ORDER BY id`, jobColumns))
}

// GetJobsByContractor returns every job assigned to the contractor.
func (s *SQLStore) GetJobsByContractor(ctx context.Context, contractorID int64) ([]schema.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE contractor_id = ? ORDER BY id`, jobColumns)
	return s.queryJobs(ctx, query, contractorID)
}

func (s *SQLStore) queryJobs(ctx context.Context, query string, args ...any) ([]schema.Job, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []schema.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

const contractorColumns = `id, name, address, lat, lng, rating, active`

func scanContractor(row interface{ Scan(...any) error }) (schema.Contractor, error) {
	var c schema.Contractor
	var lat, lng sql.NullFloat64
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &lat, &lng, &c.Rating, &c.Active); err != nil {
		return schema.Contractor{}, err
	}
	if lat.Valid && lng.Valid {
		c.Coordinates = &schema.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return c, nil
}

// GetContractorsByTrade returns contractors offering the given trade, with
// their trade profiles attached.
func (s *SQLStore) GetContractorsByTrade(ctx context.Context, tradeID int64) ([]schema.Contractor, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM contractors
		WHERE id IN (SELECT contractor_id FROM contractor_trades WHERE trade_id = ?)
		ORDER BY id`, contractorColumns)
	return s.queryContractors(ctx, query, tradeID)
}

// GetActiveContractors returns every contractor currently accepting work.
func (s *SQLStore) GetActiveContractors(ctx context.Context) ([]schema.Contractor, error) {
	query := fmt.Sprintf(`SELECT %s FROM contractors WHERE active ORDER BY id`, contractorColumns)
	return s.queryContractors(ctx, query)
}

func (s *SQLStore) queryContractors(ctx context.Context, query string, args ...any) ([]schema.Contractor, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contractors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contractors []schema.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachTrades(ctx, contractors); err != nil {
		return nil, err
	}
	return contractors, nil
}

// attachTrades loads trade profiles for the given contractors in one pass.
func (s *SQLStore) attachTrades(ctx context.Context, contractors []schema.Contractor) error {
	if len(contractors) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT contractor_id, trade_id, years_experience, verified FROM contractor_trades`)
	if err != nil {
		return fmt.Errorf("failed to query contractor trades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byContractor := make(map[int64][]schema.TradeProfile)
	for rows.Next() {
		var contractorID int64
		var tp schema.TradeProfile
		if err := rows.Scan(&contractorID, &tp.TradeID, &tp.YearsExperience, &tp.Verified); err != nil {
			return fmt.Errorf("failed to scan trade profile: %w", err)
		}
		byContractor[contractorID] = append(byContractor[contractorID], tp)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range contractors {
		contractors[i].Trades = byContractor[contractors[i].ID]
	}
	return nil
}

// quoteColumns joins jobs so each quote carries the job's posting time,
// letting callers derive response times without a second lookup.
const quoteColumns = `q.id, q.job_id, q.contractor_id, q.amount, q.status, q.created_at, j.created_at`

// GetQuotesByContractor returns every quote the contractor has submitted.
func (s *SQLStore) GetQuotesByContractor(ctx context.Context, contractorID int64) ([]schema.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM quotes q JOIN jobs j ON j.id = q.job_id
		WHERE q.contractor_id = ? ORDER BY q.id`, quoteColumns)
	return s.queryQuotes(ctx, query, contractorID)
}

// GetQuotesByJob returns every quote submitted on the job.
func (s *SQLStore) GetQuotesByJob(ctx context.Context, jobID int64) ([]schema.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM quotes q JOIN jobs j ON j.id = q.job_id
		WHERE q.job_id = ? ORDER BY q.id`, quoteColumns)
	return s.queryQuotes(ctx, query, jobID)
}

func (s *SQLStore) queryQuotes(ctx context.Context, query string, args ...any) ([]schema.Quote, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []schema.Quote
	for rows.Next() {
		var q schema.Quote
		var createdAt, jobPostedAt int64
		if err := rows.Scan(&q.ID, &q.JobID, &q.ContractorID, &q.Amount, &q.Status,
			&createdAt, &jobPostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		q.CreatedAt = time.Unix(createdAt, 0).UTC()
		q.JobPostedAt = time.Unix(jobPostedAt, 0).UTC()
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// GetReviewsByContractor returns every review left on the contractor's jobs.
func (s *SQLStore) GetReviewsByContractor(ctx context.Context, contractorID int64) ([]schema.Review, error) {
	if s.db == nil {
		return nil, nil
	}
	query := s.rebind(`
		SELECT id, job_id, contractor_id, homeowner_id, rating, comment, created_at
		FROM reviews WHERE contractor_id = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []schema.Review
	for rows.Next() {
		var r schema.Review
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.JobID, &r.ContractorID, &r.HomeownerID,
			&r.Rating, &r.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetScheduleSlotsByContractor returns the contractor's schedule windows.
func (s *SQLStore) GetScheduleSlotsByContractor(ctx context.Context, contractorID int64) ([]schema.ScheduleSlot, error) {
	if s.db == nil {
		return nil, nil
	}
	query := s.rebind(`
		SELECT id, contractor_id, start_at, end_at, committed
		FROM schedule_slots WHERE contractor_id = ? ORDER BY start_at`)
	rows, err := s.db.QueryContext(ctx, query, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule slots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []schema.ScheduleSlot
	for rows.Next() {
		var slot schema.ScheduleSlot
		var start, end int64
		if err := rows.Scan(&slot.ID, &slot.ContractorID, &start, &end, &slot.Committed); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		slot.Start = time.Unix(start, 0).UTC()
		slot.End = time.Unix(end, 0).UTC()
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

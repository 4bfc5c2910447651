package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecrew/matchengine/schema"
)

// Insert helpers for loading marketplace data. The engine itself never
// writes these tables; loaders and tests do.

// InsertJob writes one job row.
func (s *SQLStore) InsertJob(ctx context.Context, j schema.Job) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(fmt.Sprintf(`INSERT INTO jobs (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, jobColumns))
	_, err := s.db.ExecContext(ctx, query,
		j.ID, j.HomeownerID, j.TradeID, j.Title, j.Description, j.Location,
		j.Status, j.CreatedAt.Unix(), timePtrUnix(j.ScheduledAt),
		timePtrUnix(j.CompletedAt), timePtrUnix(j.PaidAt),
		j.QuotedCost, j.ActualCost, j.ContractorID)
	if err != nil {
		return fmt.Errorf("failed to insert job %d: %w", j.ID, err)
	}
	return nil
}

// InsertContractor writes one contractor row plus its trade profiles.
func (s *SQLStore) InsertContractor(ctx context.Context, c schema.Contractor) error {
	if s.db == nil {
		return nil
	}
	var lat, lng any
	if c.Coordinates != nil {
		lat, lng = c.Coordinates.Lat, c.Coordinates.Lng
	}
	query := s.rebind(fmt.Sprintf(`INSERT INTO contractors (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`, contractorColumns))
	if _, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Address, lat, lng, c.Rating, c.Active); err != nil {
		return fmt.Errorf("failed to insert contractor %d: %w", c.ID, err)
	}
	tradeQuery := s.rebind(`
		INSERT INTO contractor_trades (contractor_id, trade_id, years_experience, verified)
		VALUES (?, ?, ?, ?)`)
	for _, tp := range c.Trades {
		if _, err := s.db.ExecContext(ctx, tradeQuery,
			c.ID, tp.TradeID, tp.YearsExperience, tp.Verified); err != nil {
			return fmt.Errorf("failed to insert trade profile for contractor %d: %w", c.ID, err)
		}
	}
	return nil
}

// InsertQuote writes one quote row. JobPostedAt is derived on read, not stored.
func (s *SQLStore) InsertQuote(ctx context.Context, q schema.Quote) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(`
		INSERT INTO quotes (id, job_id, contractor_id, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		q.ID, q.JobID, q.ContractorID, q.Amount, q.Status, q.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to insert quote %d: %w", q.ID, err)
	}
	return nil
}

// InsertReview writes one review row.
func (s *SQLStore) InsertReview(ctx context.Context, r schema.Review) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(`
		INSERT INTO reviews (id, job_id, contractor_id, homeowner_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		r.ID, r.JobID, r.ContractorID, r.HomeownerID, r.Rating, r.Comment,
		r.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to insert review %d: %w", r.ID, err)
	}
	return nil
}

// InsertScheduleSlot writes one schedule slot row.
func (s *SQLStore) InsertScheduleSlot(ctx context.Context, slot schema.ScheduleSlot) error {
	if s.db == nil {
		return nil
	}
	query := s.rebind(`
		INSERT INTO schedule_slots (id, contractor_id, start_at, end_at, committed)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		slot.ID, slot.ContractorID, slot.Start.Unix(), slot.End.Unix(), slot.Committed); err != nil {
		return fmt.Errorf("failed to insert schedule slot %d: %w", slot.ID, err)
	}
	return nil
}

// SeedDemo loads a small plumbing-and-electrical marketplace so the CLI can
// be exercised without real data. Safe to run once against a fresh database.
func (s *SQLStore) SeedDemo(ctx context.Context) error {
	now := time.Now().UTC()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	contractors := []schema.Contractor{
		{ID: 1, Name: "Rivera Plumbing", Address: "Portland", Coordinates: &schema.GeoPoint{Lat: 45.52, Lng: -122.68}, Rating: 4.8, Active: true,
			Trades: []schema.TradeProfile{{TradeID: 1, YearsExperience: 12, Verified: true}}},
		{ID: 2, Name: "Cascade Pipeworks", Address: "Portland", Coordinates: &schema.GeoPoint{Lat: 45.50, Lng: -122.65}, Rating: 4.2, Active: true,
			Trades: []schema.TradeProfile{{TradeID: 1, YearsExperience: 6, Verified: true}}},
		{ID: 3, Name: "Bridgetown Drains", Address: "Portland", Coordinates: &schema.GeoPoint{Lat: 45.54, Lng: -122.66}, Rating: 3.9, Active: true,
			Trades: []schema.TradeProfile{{TradeID: 1, YearsExperience: 3, Verified: false}}},
		{ID: 4, Name: "Volt Electric", Address: "Portland", Coordinates: &schema.GeoPoint{Lat: 45.51, Lng: -122.70}, Rating: 4.6, Active: true,
			Trades: []schema.TradeProfile{{TradeID: 2, YearsExperience: 9, Verified: true}}},
	}
	for _, c := range contractors {
		if err := s.InsertContractor(ctx, c); err != nil {
			return err
		}
	}

	completed := monthAgo.Add(48 * time.Hour)
	jobs := []schema.Job{
		{ID: 1, HomeownerID: 100, TradeID: 1, Title: "Leaking kitchen faucet",
			Description: "Replace a dripping single-handle faucet", Location: "Portland",
			Status: schema.JobStatusOpen, CreatedAt: weekAgo},
		{ID: 2, HomeownerID: 101, TradeID: 1, Title: "Water heater install",
			Description: "Install a 50 gallon electric water heater", Location: "Portland",
			Status: schema.JobStatusCompleted, CreatedAt: monthAgo, ScheduledAt: &completed,
			CompletedAt: &completed, QuotedCost: 1200, ActualCost: 1250, ContractorID: 1},
		{ID: 3, HomeownerID: 102, TradeID: 2, Title: "Panel upgrade",
			Description: "Upgrade service panel to 200 amp", Location: "Portland",
			Status: schema.JobStatusOpen, CreatedAt: weekAgo},
	}
	for _, j := range jobs {
		if err := s.InsertJob(ctx, j); err != nil {
			return err
		}
	}

	quotes := []schema.Quote{
		{ID: 1, JobID: 2, ContractorID: 1, Amount: 1200, Status: schema.QuoteStatusAccepted, CreatedAt: monthAgo.Add(time.Hour)},
		{ID: 2, JobID: 2, ContractorID: 2, Amount: 1350, Status: schema.QuoteStatusRejected, CreatedAt: monthAgo.Add(5 * time.Hour)},
	}
	for _, q := range quotes {
		if err := s.InsertQuote(ctx, q); err != nil {
			return err
		}
	}

	reviews := []schema.Review{
		{ID: 1, JobID: 2, ContractorID: 1, HomeownerID: 101, Rating: 5, Comment: "Fast and tidy", CreatedAt: completed.Add(24 * time.Hour)},
	}
	for _, r := range reviews {
		if err := s.InsertReview(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

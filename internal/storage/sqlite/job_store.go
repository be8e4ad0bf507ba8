// Package sqlite provides a JobStore backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id          TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	company         TEXT NOT NULL,
	company_about   TEXT NOT NULL,
	apply_url       TEXT NOT NULL,
	apply_before    TEXT NOT NULL,
	job_description TEXT NOT NULL,
	category        TEXT NOT NULL,
	region          TEXT NOT NULL,
	salary_range    TEXT NOT NULL,
	countries       TEXT NOT NULL,
	skills          TEXT NOT NULL,
	timezones       TEXT NOT NULL,
	url             TEXT NOT NULL,
	source          TEXT NOT NULL,
	ingested_at     TEXT NOT NULL
)`

const selectColumns = `job_id, title, company, company_about, apply_url, apply_before,
	job_description, category, region, salary_range, countries, skills, timezones,
	url, source, ingested_at`

// ingestedLayout is fixed width so text ordering matches time ordering.
const ingestedLayout = "2006-01-02T15:04:05.000000000Z"

// JobStore persists listings in a single SQLite table.
type JobStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*JobStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" bound to one connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &JobStore{db: db}, nil
}

// Exists reports whether jobID is stored.
func (s *JobStore) Exists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE job_id = ?)`, jobID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check job %s: %w", jobID, err)
	}
	return exists, nil
}

// Create inserts job unless the identifier already exists.
func (s *JobStore) Create(ctx context.Context, job listing.JobListing) (bool, error) {
	lists, err := encodeLists(job)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs (`+selectColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.Title, job.Company, job.CompanyAbout, job.ApplyURL, job.ApplyBefore,
		job.JobDescription, job.Category, lists[0], job.SalaryRange, lists[1], lists[2], lists[3],
		job.URL, job.Source, job.Timestamp.UTC().Format(ingestedLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", job.JobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// List returns every listing ordered by ingestion time.
func (s *JobStore) List(ctx context.Context) ([]listing.JobListing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM jobs ORDER BY ingested_at, job_id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []listing.JobListing
	for rows.Next() {
		var (
			job                                 listing.JobListing
			region, countries, skills, timezone string
			ingested                            string
		)
		if err := rows.Scan(
			&job.JobID, &job.Title, &job.Company, &job.CompanyAbout, &job.ApplyURL, &job.ApplyBefore,
			&job.JobDescription, &job.Category, &region, &job.SalaryRange, &countries, &skills, &timezone,
			&job.URL, &job.Source, &ingested,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if err := decodeLists(&job, region, countries, skills, timezone); err != nil {
			return nil, err
		}
		if job.Timestamp, err = time.Parse(ingestedLayout, ingested); err != nil {
			return nil, fmt.Errorf("parse ingested_at for %s: %w", job.JobID, err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// Delete removes jobID.
func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close closes the database handle.
func (s *JobStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func encodeLists(job listing.JobListing) ([4]string, error) {
	var out [4]string
	for i, values := range [][]string{job.Region, job.Countries, job.Skills, job.Timezones} {
		if values == nil {
			values = []string{}
		}
		data, err := json.Marshal(values)
		if err != nil {
			return out, fmt.Errorf("marshal list: %w", err)
		}
		out[i] = string(data)
	}
	return out, nil
}

func decodeLists(job *listing.JobListing, region, countries, skills, timezones string) error {
	targets := []struct {
		raw string
		dst *[]string
	}{
		{region, &job.Region},
		{countries, &job.Countries},
		{skills, &job.Skills},
		{timezones, &job.Timezones},
	}
	for _, t := range targets {
		if err := json.Unmarshal([]byte(t.raw), t.dst); err != nil {
			return fmt.Errorf("decode list for %s: %w", job.JobID, err)
		}
	}
	return nil
}

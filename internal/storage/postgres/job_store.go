// Package postgres provides a Postgres-backed JobStore.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "jobs"

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// JobStore writes listings into a single Postgres table keyed by job_id.
type JobStore struct {
	pool  pool
	table string
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &JobStore{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*JobStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &JobStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the listings table when missing.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	job_id          TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	company         TEXT NOT NULL,
	company_about   TEXT NOT NULL,
	apply_url       TEXT NOT NULL,
	apply_before    TEXT NOT NULL,
	job_description TEXT NOT NULL,
	category        TEXT NOT NULL,
	region          JSONB NOT NULL,
	salary_range    TEXT NOT NULL,
	countries       JSONB NOT NULL,
	skills          JSONB NOT NULL,
	timezones       JSONB NOT NULL,
	url             TEXT NOT NULL,
	source          TEXT NOT NULL,
	ingested_at     TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Exists reports whether jobID is stored.
func (s *JobStore) Exists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE job_id = $1)`, s.table)
	if err := s.pool.QueryRow(ctx, query, jobID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check job %s: %w", jobID, err)
	}
	return exists, nil
}

// Create inserts job, doing nothing when the identifier already exists.
func (s *JobStore) Create(ctx context.Context, job listing.JobListing) (bool, error) {
	if job.JobID == "" {
		return false, fmt.Errorf("job id is required")
	}
	lists, err := encodeLists(job)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	job_id,
	title,
	company,
	company_about,
	apply_url,
	apply_before,
	job_description,
	category,
	region,
	salary_range,
	countries,
	skills,
	timezones,
	url,
	source,
	ingested_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (job_id) DO NOTHING`, s.table)

	args := []any{
		job.JobID,
		job.Title,
		job.Company,
		job.CompanyAbout,
		job.ApplyURL,
		job.ApplyBefore,
		job.JobDescription,
		job.Category,
		lists[0],
		job.SalaryRange,
		lists[1],
		lists[2],
		lists[3],
		job.URL,
		job.Source,
		job.Timestamp,
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", job.JobID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns every listing ordered by ingestion time.
func (s *JobStore) List(ctx context.Context) ([]listing.JobListing, error) {
	query := fmt.Sprintf(`
SELECT job_id, title, company, company_about, apply_url, apply_before, job_description,
	category, region, salary_range, countries, skills, timezones, url, source, ingested_at
FROM %s ORDER BY ingested_at, job_id`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []listing.JobListing
	for rows.Next() {
		var (
			job                                  listing.JobListing
			region, countries, skills, timezones []byte
		)
		if err := rows.Scan(
			&job.JobID, &job.Title, &job.Company, &job.CompanyAbout, &job.ApplyURL, &job.ApplyBefore,
			&job.JobDescription, &job.Category, &region, &job.SalaryRange, &countries, &skills,
			&timezones, &job.URL, &job.Source, &job.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if err := decodeLists(&job, region, countries, skills, timezones); err != nil {
			return nil, err
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
	query := fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func encodeLists(job listing.JobListing) ([4][]byte, error) {
	var out [4][]byte
	for i, values := range [][]string{job.Region, job.Countries, job.Skills, job.Timezones} {
		if values == nil {
			values = []string{}
		}
		data, err := json.Marshal(values)
		if err != nil {
			return out, fmt.Errorf("marshal list: %w", err)
		}
		out[i] = data
	}
	return out, nil
}

func decodeLists(job *listing.JobListing, lists ...[]byte) error {
	dsts := []*[]string{&job.Region, &job.Countries, &job.Skills, &job.Timezones}
	if len(lists) != len(dsts) {
		return errors.New("decode lists: column count mismatch")
	}
	for i, raw := range lists {
		if err := json.Unmarshal(raw, dsts[i]); err != nil {
			return fmt.Errorf("decode list for %s: %w", job.JobID, err)
		}
	}
	return nil
}

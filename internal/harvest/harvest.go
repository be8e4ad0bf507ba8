// Package harvest drives a crawl: it discovers listing URLs and moves each one
// through pre-check, extraction, validation and persistence, strictly one at
// a time.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/metrics"
)

// PersistedEvent tags notifications published for newly stored listings.
const PersistedEvent = "listing.persisted"

// Outcome is the terminal state of one URL.
type Outcome string

// Terminal outcomes.
const (
	OutcomePersisted        Outcome = "persisted"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	OutcomeFailed           Outcome = "failed"
	OutcomeRejected         Outcome = "rejected"
)

// SampleURLs are processed by RunURLs when no URLs are given.
var SampleURLs = []string{
	"https://weworkremotely.com/remote-jobs/clipboard-health-collections-account-manager-2",
	"https://weworkremotely.com/remote-jobs/laudio-staff-software-engineer",
	"https://weworkremotely.com/remote-jobs/soflyy-wordpress-developer-technical-writer",
	"https://weworkremotely.com/remote-jobs/maverick-trading-equity-option-trader-at-maverick-trading",
}

// Crawler discovers listing URLs.
type Crawler interface {
	Crawl(ctx context.Context, rootURL string) []string
}

// Builder extracts a raw record from a listing URL.
type Builder interface {
	Build(ctx context.Context, url string) (listing.Raw, error)
}

// Gate persists validated listings at most once.
type Gate interface {
	Exists(ctx context.Context, jobID string) (bool, error)
	Save(ctx context.Context, jobID string, job listing.JobListing, dryRun bool) (bool, error)
}

// Publisher announces persisted listings.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// Config tunes pacing and reporting.
type Config struct {
	Delay         time.Duration
	ProgressEvery int
	SummaryEvery  int
}

// Summary counts outcomes for a run. Failed includes Rejected and Skipped
// includes Duplicates.
type Summary struct {
	Discovered int
	Succeeded  int
	Failed     int
	Skipped    int
	Rejected   int
	Duplicates int
}

func (s *Summary) record(o Outcome) {
	switch o {
	case OutcomePersisted:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeSkippedDuplicate:
		s.Skipped++
		s.Duplicates++
	case OutcomeRejected:
		s.Failed++
		s.Rejected++
	default:
		s.Failed++
	}
}

func (s Summary) fields() []zap.Field {
	return []zap.Field{
		zap.Int("discovered", s.Discovered),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Int("rejected", s.Rejected),
		zap.Int("duplicates", s.Duplicates),
	}
}

// Notification is the payload published for each persisted listing.
type Notification struct {
	JobID     string    `json:"job_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Harvester is the orchestrator for a single sequential run.
type Harvester struct {
	crawler   Crawler
	builder   Builder
	gate      Gate
	publisher Publisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
	pause     func(context.Context, time.Duration) error
}

// Option customizes a Harvester.
type Option func(*Harvester)

// WithPublisher announces each persisted listing through p.
func WithPublisher(p Publisher) Option {
	return func(h *Harvester) { h.publisher = p }
}

// WithPause replaces the inter-request sleep.
func WithPause(pause func(context.Context, time.Duration) error) Option {
	return func(h *Harvester) { h.pause = pause }
}

// New wires a Harvester.
func New(crawler Crawler, builder Builder, gate Gate, cfg Config, logger *zap.Logger, opts ...Option) *Harvester {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	if cfg.SummaryEvery <= 0 {
		cfg.SummaryEvery = 50
	}
	h := &Harvester{
		crawler: crawler,
		builder: builder,
		gate:    gate,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		pause:   sleep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run discovers listing URLs from rootURL and processes every one of them.
func (h *Harvester) Run(ctx context.Context, rootURL string, dryRun bool) (Summary, error) {
	h.logger.Info("fetching listing urls from sitemap", zap.String("sitemap", rootURL))
	urls := h.crawler.Crawl(ctx, rootURL)
	metrics.ObserveSitemapURLs(len(urls))
	h.logger.Info("listing urls discovered", zap.Int("count", len(urls)))
	return h.run(ctx, urls, dryRun)
}

// RunURLs processes urls in order, falling back to SampleURLs when urls is
// empty. In dry-run mode the existence pre-check is skipped and nothing is
// written. The returned error is non-nil only when ctx ends the run early.
func (h *Harvester) RunURLs(ctx context.Context, urls []string, dryRun bool) (Summary, error) {
	if len(urls) == 0 {
		urls = SampleURLs
	}
	return h.run(ctx, urls, dryRun)
}

func (h *Harvester) run(ctx context.Context, urls []string, dryRun bool) (Summary, error) {
	summary := Summary{Discovered: len(urls)}
	total := len(urls)
	var runErr error

	for i, url := range urls {
		pos := i + 1
		start := h.now()
		outcome, loaded, err := h.process(ctx, url, dryRun)
		summary.record(outcome)
		metrics.ObserveListing(string(outcome))
		h.report(pos, total, url, outcome, err, h.now().Sub(start))

		if pos%h.cfg.SummaryEvery == 0 {
			h.logger.Info("harvest progress", append([]zap.Field{zap.String("position", fmt.Sprintf("%d/%d", pos, total))}, summary.fields()...)...)
		}
		if ctx.Err() != nil {
			runErr = fmt.Errorf("harvest interrupted: %w", ctx.Err())
			break
		}
		if loaded && pos < total && h.cfg.Delay > 0 {
			if err := h.pause(ctx, h.cfg.Delay); err != nil {
				runErr = fmt.Errorf("harvest interrupted: %w", err)
				break
			}
		}
	}

	h.logger.Info("harvest completed", summary.fields()...)
	return summary, runErr
}

// process moves one URL to a terminal outcome. loaded reports whether the
// page was fetched, which is what the inter-request delay paces.
func (h *Harvester) process(ctx context.Context, url string, dryRun bool) (outcome Outcome, loaded bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("panic while processing: %v", rec)
		}
	}()

	jobID := listing.IDFromURL(url)
	if !dryRun {
		exists, err := h.gate.Exists(ctx, jobID)
		if err != nil {
			return OutcomeFailed, false, err
		}
		if exists {
			return OutcomeSkipped, false, nil
		}
	}

	started := h.now()
	raw, err := h.builder.Build(ctx, url)
	if err != nil {
		metrics.ObservePageLoad(url, "error", h.now().Sub(started))
		return OutcomeFailed, true, err
	}
	metrics.ObservePageLoad(url, "ok", h.now().Sub(started))

	job, err := listing.Validate(raw)
	if err != nil {
		return OutcomeRejected, true, err
	}

	saved, err := h.gate.Save(ctx, job.JobID, job, dryRun)
	if err != nil {
		return OutcomeFailed, true, err
	}
	if !saved {
		return OutcomeSkippedDuplicate, true, nil
	}
	if !dryRun {
		h.notify(ctx, job)
	}
	return OutcomePersisted, true, nil
}

func (h *Harvester) notify(ctx context.Context, job listing.JobListing) {
	if h.publisher == nil {
		return
	}
	payload := Notification{
		JobID:     job.JobID,
		URL:       job.URL,
		Title:     job.Title,
		Company:   job.Company,
		Category:  job.Category,
		Timestamp: h.now().UTC(),
	}
	if _, err := h.publisher.Publish(ctx, PersistedEvent, payload); err != nil {
		metrics.ObservePublishFailure()
		h.logger.Warn("publish listing notification failed", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

// report logs failures always and everything else only on the first, last
// and every ProgressEvery-th item.
func (h *Harvester) report(pos, total int, url string, outcome Outcome, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("position", fmt.Sprintf("%d/%d", pos, total)),
		zap.String("url", url),
		zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		var missing *listing.MissingFieldsError
		if errors.As(err, &missing) {
			fields = append(fields, zap.Strings("missing_fields", missing.Fields))
		}
		h.logger.Warn("listing not stored", append(fields, zap.Error(err))...)
		return
	}
	if pos == 1 || pos == total || pos%h.cfg.ProgressEvery == 0 {
		h.logger.Info("listing processed", fields...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

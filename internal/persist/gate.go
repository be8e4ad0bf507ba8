// Package persist writes validated listings at most once per identifier.
package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

// Clock supplies ingestion timestamps.
type Clock interface {
	Now() time.Time
}

// Gate checks existence before writing and never overwrites a stored record.
type Gate struct {
	store  storage.JobStore
	clock  Clock
	logger *zap.Logger
}

// NewGate wires a Gate to store.
func NewGate(store storage.JobStore, clock Clock, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, clock: clock, logger: logger}
}

// Exists reports whether jobID has already been persisted.
func (g *Gate) Exists(ctx context.Context, jobID string) (bool, error) {
	ok, err := g.store.Exists(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return ok, nil
}

// Save writes job under jobID and reports whether it was written. A dry run
// performs no I/O and always reports true. An identifier that is already
// stored reports false and leaves the stored record untouched.
func (g *Gate) Save(ctx context.Context, jobID string, job listing.JobListing, dryRun bool) (bool, error) {
	if dryRun {
		g.logger.Info("dry run, listing not written",
			zap.String("job_id", jobID),
			zap.String("title", job.Title),
			zap.String("company", job.Company),
		)
		return true, nil
	}
	exists, err := g.Exists(ctx, jobID)
	if err != nil {
		return false, err
	}
	if exists {
		g.logger.Debug("listing already stored", zap.String("job_id", jobID))
		return false, nil
	}
	job.JobID = jobID
	job.Timestamp = g.clock.Now()
	created, err := g.store.Create(ctx, job)
	if err != nil {
		return false, fmt.Errorf("write listing %s: %w", jobID, err)
	}
	if !created {
		g.logger.Info("listing stored concurrently, write skipped", zap.String("job_id", jobID))
	}
	return created, nil
}

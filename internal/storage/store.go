// Package storage defines the job listing store shared by the harvester and
// the query service.
package storage

import (
	"context"
	"errors"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
)

// ErrNotFound is returned when a listing identifier is absent from the store.
var ErrNotFound = errors.New("job not found")

// JobStore persists listings keyed by JobID. Create is an atomic
// create-if-absent: it reports false and leaves the stored record untouched
// when the identifier already exists.
type JobStore interface {
	Exists(ctx context.Context, jobID string) (bool, error)
	Create(ctx context.Context, job listing.JobListing) (bool, error)
	List(ctx context.Context) ([]listing.JobListing, error)
	Delete(ctx context.Context, jobID string) error
	Close() error
}

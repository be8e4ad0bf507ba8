// Package memory provides an in-memory JobStore for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

// JobStore keeps listings in a map guarded by a RWMutex.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]listing.JobListing
	order []string
}

// NewJobStore constructs an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]listing.JobListing)}
}

// Exists reports whether jobID is stored.
func (s *JobStore) Exists(_ context.Context, jobID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[jobID]
	return ok, nil
}

// Create stores job unless its identifier is already present.
func (s *JobStore) Create(_ context.Context, job listing.JobListing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.JobID]; exists {
		return false, nil
	}
	s.jobs[job.JobID] = cloneListing(job)
	s.order = append(s.order, job.JobID)
	return true, nil
}

// Get returns a copy of the stored listing.
func (s *JobStore) Get(_ context.Context, jobID string) (listing.JobListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return listing.JobListing{}, storage.ErrNotFound
	}
	return cloneListing(job), nil
}

// List returns copies of every listing in insertion order.
func (s *JobStore) List(_ context.Context) ([]listing.JobListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]listing.JobListing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneListing(s.jobs[id]))
	}
	return out, nil
}

// Delete removes jobID.
func (s *JobStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.jobs, jobID)
	for i, id := range s.order {
		if id == jobID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (s *JobStore) Close() error {
	return nil
}

func cloneListing(src listing.JobListing) listing.JobListing {
	cp := src
	cp.Region = cloneStrings(src.Region)
	cp.Countries = cloneStrings(src.Countries)
	cp.Skills = cloneStrings(src.Skills)
	cp.Timezones = cloneStrings(src.Timezones)
	return cp
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

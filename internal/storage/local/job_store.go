// Package local implements a filesystem listing store: one JSON document per
// listing under a base directory.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

const ext = ".json"

// Config captures the parameters for the filesystem store.
type Config struct {
	// BaseDir is the directory listing documents are written to.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// JobStore keeps listings as files named <job_id>.json.
type JobStore struct {
	baseDir string
}

// New creates the base directory when needed and checks that it is writable.
func New(cfg Config) (*JobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &JobStore{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

// path maps jobID to its document, refusing anything that would escape baseDir.
func (s *JobStore) path(jobID string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("job id is required")
	}
	full := filepath.Clean(filepath.Join(s.baseDir, jobID+ext))
	if filepath.Dir(full) != s.baseDir {
		return "", fmt.Errorf("path traversal detected for job id %q", jobID)
	}
	return full, nil
}

// Exists reports whether a document for jobID is present.
func (s *JobStore) Exists(_ context.Context, jobID string) (bool, error) {
	p, err := s.path(jobID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat listing %s: %w", jobID, err)
	}
}

// Create writes job unless a document already exists. O_EXCL makes the check
// and the write a single step.
func (s *JobStore) Create(_ context.Context, job listing.JobListing) (bool, error) {
	p, err := s.path(job.JobID)
	if err != nil {
		return false, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encode listing %s: %w", job.JobID, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path confined to baseDir
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create listing %s: %w", job.JobID, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return false, fmt.Errorf("write listing %s: %w", job.JobID, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return false, fmt.Errorf("close listing %s: %w", job.JobID, err)
	}
	return true, nil
}

// List decodes every stored listing, ordered by ingestion timestamp.
func (s *JobStore) List(_ context.Context) ([]listing.JobListing, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read base directory: %w", err)
	}
	out := make([]listing.JobListing, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var job listing.JobListing
		if err := json.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Name(), err)
		}
		out = append(out, job)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes the document for jobID.
func (s *JobStore) Delete(_ context.Context, jobID string) error {
	p, err := s.path(jobID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("delete listing %s: %w", jobID, err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles.
func (s *JobStore) Close() error {
	return nil
}

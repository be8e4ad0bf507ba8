// Package gcs provides a JobStore backed by Google Cloud Storage, one JSON
// object per listing.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	appstorage "github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

const contentType = "application/json"

// Config captures the bucket and object prefix listings live under.
type Config struct {
	Bucket string
	Prefix string
}

// JobStore reads and writes listing objects in a configured bucket.
type JobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed job store.
func New(client *storage.Client, cfg Config) (*JobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &JobStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *JobStore) objectName(jobID string) string {
	if s.prefix == "" {
		return jobID + ".json"
	}
	return path.Join(s.prefix, jobID+".json")
}

func (s *JobStore) object(jobID string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(jobID))
}

// Exists reports whether the listing object is present.
func (s *JobStore) Exists(ctx context.Context, jobID string) (bool, error) {
	_, err := s.object(jobID).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", s.objectName(jobID), err)
	}
}

// Create uploads the listing guarded by a does-not-exist precondition, so a
// concurrent writer can never replace the first record.
func (s *JobStore) Create(ctx context.Context, job listing.JobListing) (bool, error) {
	if strings.TrimSpace(job.JobID) == "" {
		return false, fmt.Errorf("job id is required")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job: %w", err)
	}
	writer := s.object(job.JobID).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return false, fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return false, fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("close writer: %w", err)
	}
	return true, nil
}

// List reads every listing object under the prefix, ordered by name.
func (s *JobStore) List(ctx context.Context) ([]listing.JobListing, error) {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	var out []listing.JobListing
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}
		job, err := s.read(ctx, attrs.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *JobStore) read(ctx context.Context, name string) (listing.JobListing, error) {
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return listing.JobListing{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return listing.JobListing{}, fmt.Errorf("read %s: %w", name, err)
	}
	var job listing.JobListing
	if err := json.Unmarshal(data, &job); err != nil {
		return listing.JobListing{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return job, nil
}

// Delete removes the listing object.
func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	err := s.object(jobID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return appstorage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.objectName(jobID), err)
	}
	return nil
}

// Close releases the storage client.
func (s *JobStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	appstorage "github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

var _ appstorage.JobStore = (*JobStore)(nil)

func newTestStore(t *testing.T, handler http.Handler) *JobStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	store, err := New(client, Config{Bucket: "test-bucket", Prefix: "jobs/"})
	require.NoError(t, err)
	return store
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	_, err = New(client, Config{})
	require.Error(t, err)
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	s := &JobStore{prefix: "jobs"}
	require.Equal(t, "jobs/job-42.json", s.objectName("job-42"))
	s.prefix = ""
	require.Equal(t, "job-42.json", s.objectName("job-42"))
}

func TestCreateUploadsWithPrecondition(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/b/test-bucket/o")
		assert.Equal(t, "jobs/job-42.json", r.URL.Query().Get("name"))
		assert.Equal(t, "0", r.URL.Query().Get("ifGenerationMatch"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `"job_id":"job-42"`)
		fmt.Fprintln(w, `{"name":"jobs/job-42.json","bucket":"test-bucket"}`)
	})
	store := newTestStore(t, handler)

	created, err := store.Create(context.Background(), listing.JobListing{JobID: "job-42", Title: "Engineer"})
	require.NoError(t, err)
	require.True(t, created)
}

func TestCreateExistingObjectIsDuplicate(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPreconditionFailed)
		fmt.Fprintln(w, `{"error":{"code":412,"message":"At least one of the pre-conditions you specified did not hold."}}`)
	})
	store := newTestStore(t, handler)

	created, err := store.Create(context.Background(), listing.JobListing{JobID: "job-42"})
	require.NoError(t, err)
	require.False(t, created)
}

func TestCreateServerError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store := newTestStore(t, handler)

	_, err := store.Create(context.Background(), listing.JobListing{JobID: "job-42"})
	require.Error(t, err)
}

func TestCreateRequiresID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, http.NotFoundHandler())
	_, err := store.Create(context.Background(), listing.JobListing{})
	require.Error(t, err)
}

// Package local_test tests the filesystem listing store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/local"
)

var _ storage.JobStore = (*local.JobStore)(nil)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})
	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "jobs")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})
	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestJobStoreLifecycle(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	exists, err := store.Exists(ctx, "job-42")
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := store.Create(ctx, listing.JobListing{JobID: "job-42", Title: "first", Countries: []string{}, Timestamp: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Create(ctx, listing.JobListing{JobID: "job-42", Title: "second"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = store.Create(ctx, listing.JobListing{JobID: "job-41", Title: "older", Timestamp: t0})
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "older", all[0].Title)
	assert.Equal(t, "first", all[1].Title)
	assert.Equal(t, []string{}, all[1].Countries)

	require.NoError(t, store.Delete(ctx, "job-42"))
	require.ErrorIs(t, store.Delete(ctx, "job-42"), storage.ErrNotFound)
	require.NoError(t, store.Close())
}

func TestJobStoreRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Create(context.Background(), listing.JobListing{JobID: "../escape"})
	require.Error(t, err)
	_, err = store.Exists(context.Background(), "")
	require.Error(t, err)
}

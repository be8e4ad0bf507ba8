package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsNoticesInOrder(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "listing.persisted", map[string]string{"job_id": "a"})
	require.NoError(t, err)
	require.Equal(t, "notice-1", id1)
	id2, err := pub.Publish(context.Background(), "listing.persisted", "payload")
	require.NoError(t, err)
	require.Equal(t, "notice-2", id2)

	notices := pub.Notices()
	require.Len(t, notices, 2)
	require.Equal(t, "listing.persisted", notices[0].Event)
	require.Equal(t, "notice-2", notices[1].ID)

	notices[0].Event = "modified"
	require.Equal(t, "listing.persisted", pub.Notices()[0].Event, "Notices() must return a copy")
	require.NoError(t, pub.Close())
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	pub := New()
	down := errors.New("broker down")
	pub.FailWith(down)
	_, err := pub.Publish(context.Background(), "listing.persisted", nil)
	require.ErrorIs(t, err, down)
	require.Empty(t, pub.Notices())

	pub.FailWith(nil)
	_, err = pub.Publish(context.Background(), "listing.persisted", nil)
	require.NoError(t, err)
	require.Len(t, pub.Notices(), 1)
}

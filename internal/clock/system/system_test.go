package system

import (
	"testing"
	"time"
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := New().Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestClockNowTruncated(t *testing.T) {
	t.Parallel()

	got := New().Now()
	if got.Nanosecond()%int(Precision) != 0 {
		t.Fatalf("expected %v to be truncated to %s", got, Precision)
	}
}

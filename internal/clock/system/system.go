// Package system provides the wall clock used for ingestion timestamps.
package system

import "time"

// Precision matches the coarsest timestamp resolution among the stores
// (Postgres timestamptz), so a listing reads back exactly as it was written.
const Precision = time.Microsecond

// Clock stamps listings with the current UTC time.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to Precision.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}

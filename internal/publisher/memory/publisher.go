// Package memory keeps listing notifications in process so runs without a
// broker can still be inspected.
package memory

import (
	"context"
	"strconv"
	"sync"
)

// Notice is one recorded notification.
type Notice struct {
	ID      string
	Event   string
	Payload any
}

// Publisher records notices in arrival order. A non-nil failure is returned
// from every Publish instead of recording.
type Publisher struct {
	mu      sync.Mutex
	notices []Notice
	failure error
}

// New returns an empty recorder.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes subsequent publishes return err. Pass nil to recover.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.failure = err
	p.mu.Unlock()
}

// Publish appends a notice and returns its sequence-based id.
func (p *Publisher) Publish(_ context.Context, event string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	id := "notice-" + strconv.Itoa(len(p.notices)+1)
	p.notices = append(p.notices, Notice{ID: id, Event: event, Payload: payload})
	return id, nil
}

// Notices returns a copy of everything recorded so far.
func (p *Publisher) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notice(nil), p.notices...)
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }

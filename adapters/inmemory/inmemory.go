// Package inmemory provides an in-memory observe.Sink for tests and local development.
package inmemory

import (
	"context"
	"sync"

	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// Sink is a thread-safe in-memory implementation of observe.Sink.
// It records every dispatch record it receives, for testing and examples.
type Sink struct {
	mu      sync.Mutex
	records []observe.Record
}

// Ensure Sink implements the contract.
var _ observe.Sink = (*Sink)(nil)

// New creates a new in-memory sink instance.
func New() *Sink { return &Sink{} }

// Forward appends the record to the in-memory log.
func (s *Sink) Forward(ctx context.Context, rec observe.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	return nil
}

// Records returns a copy of everything forwarded so far.
func (s *Sink) Records() []observe.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]observe.Record(nil), s.records...)
}

// Len reports how many records have been forwarded.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Reset clears the recorded log.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

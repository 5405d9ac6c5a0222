package observe

import (
	"context"
	"errors"
	"time"
)

// Record is one terminal handler outcome. The bus emits a record for every
// handler in both dispatch modes, so async outcomes stay observable even
// though async receipts carry no results.
type Record struct {
	EventID       string        `json:"event_id"`
	Kind          string        `json:"kind"`
	Subscriber    string        `json:"subscriber"`
	Origin        string        `json:"origin,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	Timestamp     time.Time     `json:"ts"`
}

// Sink receives dispatch records. Library users provide an implementation
// that maps to their telemetry backend (NATS, RabbitMQ, Kafka, Prometheus,
// in-memory, etc.). Implementations must be safe for concurrent use.
//
// Sink errors are logged by the bus and never fail a dispatch.
type Sink interface {
	Forward(ctx context.Context, rec Record) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

// Forward implements Sink.
func (f SinkFunc) Forward(ctx context.Context, rec Record) error { return f(ctx, rec) }

// NopSink drops every record. Useful for tests or when observability is
// disabled.
type NopSink struct{}

// Forward implements Sink.
func (NopSink) Forward(ctx context.Context, rec Record) error {
	_ = ctx
	_ = rec
	return nil
}

// MultiSink fans each record out to all sinks and joins their errors.
type MultiSink []Sink

// Forward implements Sink.
func (m MultiSink) Forward(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Forward(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

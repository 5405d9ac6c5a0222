package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "bus.dispatch"

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Sink forwards dispatch records to NATS using an injected Client.
// Each record is published as JSON to "<subject>.<kind>".
type Sink struct {
	Client  Client
	Subject string
}

// Ensure Sink implements the contract.
var _ observe.Sink = (*Sink)(nil)

// New creates a new NATS sink with the provided client. An empty subject
// falls back to DefaultSubject.
func New(c Client, subject string) *Sink { return &Sink{Client: c, Subject: subject} }

// Forward serializes the record and publishes it.
func (s *Sink) Forward(ctx context.Context, rec observe.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("nats forward serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err := s.Client.Publish(s.subjectFor(rec), body, recordHeaders(rec)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats forward publish: %w", errors.Join(berr.ErrForwardFailed, err))
	}

	return nil
}

func (s *Sink) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Client == nil {
		return fmt.Errorf("nats forward: %w", berr.ErrForwardFailed)
	}

	return nil
}

func (s *Sink) subjectFor(rec observe.Record) string {
	base := s.Subject
	if base == "" {
		base = DefaultSubject
	}

	if rec.Kind == "" {
		return base
	}

	return base + "." + rec.Kind
}

func recordHeaders(rec observe.Record) map[string]string {
	h := map[string]string{
		"kind":   rec.Kind,
		"status": rec.Status,
	}

	if rec.CorrelationID != "" {
		h["correlation-id"] = rec.CorrelationID
	}

	return h
}

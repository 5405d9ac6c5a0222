package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// DefaultTopic is the topic records are written to when none is configured.
const DefaultTopic = "bus.dispatch"

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go, segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(topic string, key, value []byte, headers map[string]string) error
}

// Sink forwards dispatch records to Kafka using an injected Writer.
// Records are keyed by event kind so one kind stays on one partition,
// preserving the per-kind order the bus guarantees.
type Sink struct {
	Writer Writer
	Topic  string
}

var _ observe.Sink = (*Sink)(nil)

// New creates a new Kafka sink instance with the provided writer. An empty
// topic falls back to DefaultTopic.
func New(w Writer, topic string) *Sink { return &Sink{Writer: w, Topic: topic} }

// Forward serializes the record and writes it.
func (s *Sink) Forward(ctx context.Context, rec observe.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Writer == nil {
		return fmt.Errorf("kafka forward: %w", berr.ErrForwardFailed)
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kafka forward serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := s.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	if err = s.Writer.Write(topic, []byte(rec.Kind), val, recordHeaders(rec)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// separate return from preceding multi-line block (wsl)
		return fmt.Errorf("kafka forward write: %w", errors.Join(berr.ErrForwardFailed, err))
	}

	return nil
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

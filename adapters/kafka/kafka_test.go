package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/next-trace/scg-slice-bus/adapters/kafka"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

type fakeWriter struct {
	calls []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

func TestKafka_Forward_TopicKeyAndHeaders(t *testing.T) {
	fw := &fakeWriter{}
	s := kafka.New(fw, "audit.bus")

	rec := observe.Record{
		EventID:       "ev-1",
		Kind:          "message.received",
		Subscriber:    "svc.cache#1",
		CorrelationID: "corr-1",
		Status:        "ok",
	}
	if err := s.Forward(t.Context(), rec); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fw.calls))
	}

	c := fw.calls[0]

	if c.topic != "audit.bus" {
		t.Fatalf("topic: %s", c.topic)
	}

	if string(c.key) != "message.received" {
		t.Fatalf("key: %s", string(c.key))
	}

	var got observe.Record
	if err := json.Unmarshal(c.value, &got); err != nil {
		t.Fatalf("value is not a record: %v", err)
	}

	if got.EventID != "ev-1" || got.Subscriber != "svc.cache#1" {
		t.Fatalf("value mismatch: %+v", got)
	}

	if c.headers["kind"] != "message.received" || c.headers["status"] != "ok" {
		t.Fatalf("headers: %+v", c.headers)
	}

	if c.headers["correlation-id"] != "corr-1" {
		t.Fatalf("correlation header: %+v", c.headers)
	}
}

func TestKafka_Forward_DefaultTopic(t *testing.T) {
	fw := &fakeWriter{}
	s := kafka.New(fw, "")

	if err := s.Forward(t.Context(), observe.Record{Kind: "page.published"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if len(fw.calls) != 1 || fw.calls[0].topic != kafka.DefaultTopic {
		t.Fatalf("topic: %s", fw.calls[0].topic)
	}
}

func TestKafka_NilWriterError(t *testing.T) {
	s := kafka.New(nil, "")

	err := s.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if err == nil {
		t.Fatalf("expected error")
	}

	if !errors.Is(err, berr.ErrForwardFailed) {
		t.Fatalf("want ErrForwardFailed, got %v", err)
	}
}

func TestKafka_Forward_ErrorWrapping_And_ContextCancel(t *testing.T) {
	fw := &fakeWriter{err: errors.New("boom")}
	s := kafka.New(fw, "")

	err := s.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if !errors.Is(err, berr.ErrForwardFailed) {
		t.Fatalf("want wrapped ErrForwardFailed, got %v", err)
	}

	fw2 := &fakeWriter{err: context.DeadlineExceeded}
	s2 := kafka.New(fw2, "")

	err = s2.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context.DeadlineExceeded, got %v", err)
	}
}

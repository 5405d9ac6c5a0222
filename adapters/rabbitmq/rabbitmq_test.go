package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/next-trace/scg-slice-bus/adapters/rabbitmq"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

type fakePublisher struct {
	calls []rabbitmq.PubMsg
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, m rabbitmq.PubMsg) error {
	_ = ctx
	f.calls = append(f.calls, m)

	return f.err
}

func TestRabbitMQ_Forward_RoutingBodyAndHeaders(t *testing.T) {
	fp := &fakePublisher{}
	s := rabbitmq.New(fp)

	rec := observe.Record{
		EventID:       "ev-1",
		Kind:          "message.received",
		Subscriber:    "svc.cache#1",
		CorrelationID: "corr-1",
		Status:        "failed",
		Error:         "boom",
	}
	if err := s.Forward(t.Context(), rec); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if len(fp.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fp.calls))
	}

	c := fp.calls[0]
	if c.Exchange != rabbitmq.DefaultExchange || c.RoutingKey != "record.message.received" {
		t.Fatalf("routing: %q %q", c.Exchange, c.RoutingKey)
	}

	var got observe.Record
	if err := json.Unmarshal(c.Body, &got); err != nil {
		t.Fatalf("body is not a record: %v", err)
	}

	if got.EventID != "ev-1" || got.Error != "boom" {
		t.Fatalf("body mismatch: %+v", got)
	}

	if c.Headers["kind"] != "message.received" || c.Headers["status"] != "failed" {
		t.Fatalf("headers: %+v", c.Headers)
	}

	if c.Headers["correlation-id"] != "corr-1" {
		t.Fatalf("correlation header: %+v", c.Headers)
	}
}

func TestRabbitMQ_Forward_CustomRouting(t *testing.T) {
	fp := &fakePublisher{}
	s := rabbitmq.NewWithRouting(fp, "audit", "trail")

	if err := s.Forward(t.Context(), observe.Record{Kind: "page.published"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	c := fp.calls[0]
	if c.Exchange != "audit" || c.RoutingKey != "trail.page.published" {
		t.Fatalf("routing: %q %q", c.Exchange, c.RoutingKey)
	}
}

func TestRabbitMQ_NilPublisherError(t *testing.T) {
	s := rabbitmq.New(nil)

	err := s.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if err == nil {
		t.Fatalf("expected error")
	}

	if !errors.Is(err, berr.ErrForwardFailed) {
		t.Fatalf("want ErrForwardFailed, got %v", err)
	}
}

func TestRabbitMQ_Forward_ErrorWrapping_And_ContextCancel(t *testing.T) {
	fp := &fakePublisher{err: errors.New("boom")}
	s := rabbitmq.New(fp)

	err := s.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if !errors.Is(err, berr.ErrForwardFailed) {
		t.Fatalf("want wrapped ErrForwardFailed, got %v", err)
	}

	fp2 := &fakePublisher{err: context.Canceled}
	s2 := rabbitmq.New(fp2)

	err = s2.Forward(t.Context(), observe.Record{Kind: "message.received"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

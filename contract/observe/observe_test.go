package observe_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-slice-bus/contract/observe"
)

func TestSinkFunc_And_NopSink(t *testing.T) {
	var got observe.Record

	s := observe.SinkFunc(func(ctx context.Context, rec observe.Record) error {
		got = rec
		return nil
	})
	if err := s.Forward(t.Context(), observe.Record{Kind: "message.received"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if got.Kind != "message.received" {
		t.Fatalf("record not delivered: %+v", got)
	}

	if err := (observe.NopSink{}).Forward(t.Context(), observe.Record{}); err != nil {
		t.Fatalf("nop sink: %v", err)
	}
}

func TestMultiSink_FansOutAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")

	seen := 0
	counting := observe.SinkFunc(func(ctx context.Context, rec observe.Record) error {
		seen++
		return nil
	})
	failing := observe.SinkFunc(func(ctx context.Context, rec observe.Record) error {
		return errA
	})

	m := observe.MultiSink{counting, failing, counting}

	err := m.Forward(t.Context(), observe.Record{Kind: "page.published"})
	if !errors.Is(err, errA) {
		t.Fatalf("want joined errA, got %v", err)
	}

	// A failing sink never blocks the ones after it.
	if seen != 2 {
		t.Fatalf("want 2 deliveries, got %d", seen)
	}

	if err := (observe.MultiSink{}).Forward(t.Context(), observe.Record{}); err != nil {
		t.Fatalf("empty multi sink: %v", err)
	}
}

func TestRecord_WireShape(t *testing.T) {
	rec := observe.Record{
		EventID:    "ev-1",
		Kind:       "message.received",
		Subscriber: "svc.cache#1",
		Status:     "ok",
		Elapsed:    3 * time.Millisecond,
		Timestamp:  time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["event_id"] != "ev-1" || m["status"] != "ok" {
		t.Fatalf("wire keys: %v", m)
	}

	// Empty optionals stay off the wire.
	if _, ok := m["error"]; ok {
		t.Fatalf("empty error should be omitted: %v", m)
	}

	if _, ok := m["origin"]; ok {
		t.Fatalf("empty origin should be omitted: %v", m)
	}
}

package inmemory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/next-trace/scg-slice-bus/adapters/inmemory"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

func TestInmemory_ForwardRecords(t *testing.T) {
	s := inmemory.New()

	recs := []observe.Record{
		{EventID: "1", Kind: "message.received", Subscriber: "svc.cache#1", Status: "ok"},
		{EventID: "2", Kind: "page.published", Subscriber: "svc.pages#1", Status: "failed", Error: "boom"},
	}

	for _, rec := range recs {
		if err := s.Forward(t.Context(), rec); err != nil {
			t.Fatalf("forward %q: %v", rec.EventID, err)
		}
	}

	got := s.Records()
	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}

	if got[0].EventID != "1" || got[1].EventID != "2" {
		t.Fatalf("records out of order: %q, %q", got[0].EventID, got[1].EventID)
	}

	if got[1].Error != "boom" {
		t.Fatalf("want error preserved, got %q", got[1].Error)
	}

	if s.Len() != 2 {
		t.Fatalf("want Len 2, got %d", s.Len())
	}
}

func TestInmemory_ForwardHonorsContext(t *testing.T) {
	s := inmemory.New()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := s.Forward(ctx, observe.Record{EventID: "1"}); err == nil {
		t.Fatal("want context error, got nil")
	}

	if s.Len() != 0 {
		t.Fatalf("want nothing recorded, got %d", s.Len())
	}
}

func TestInmemory_RecordsReturnsCopy(t *testing.T) {
	s := inmemory.New()

	if err := s.Forward(t.Context(), observe.Record{EventID: "1"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	got := s.Records()
	got[0].EventID = "mutated"

	if s.Records()[0].EventID != "1" {
		t.Fatal("Records must return a copy")
	}

	s.Reset()

	if s.Len() != 0 {
		t.Fatalf("want empty after reset, got %d", s.Len())
	}
}

func TestInmemory_ConcurrentSafety(t *testing.T) {
	s := inmemory.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		forward := func() {
			defer wg.Done()

			_ = s.Forward(t.Context(), observe.Record{Kind: "message.received"})
		}

		read := func() {
			defer wg.Done()

			_ = s.Records()
		}

		go forward()
		go read()
	}

	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("records=%d", s.Len())
	}
}

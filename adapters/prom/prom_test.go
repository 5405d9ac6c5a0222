package prom_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/next-trace/scg-slice-bus/adapters/prom"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

func TestProm_Forward_CountsByKindAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()

	s, err := prom.New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	recs := []observe.Record{
		{Kind: "message.received", Status: "ok", Elapsed: 5 * time.Millisecond},
		{Kind: "message.received", Status: "ok", Elapsed: 7 * time.Millisecond},
		{Kind: "message.received", Status: "failed", Elapsed: time.Millisecond},
		{Kind: "page.published", Status: "ok", Elapsed: 2 * time.Millisecond},
	}
	for _, rec := range recs {
		if err := s.Forward(t.Context(), rec); err != nil {
			t.Fatalf("forward: %v", err)
		}
	}

	got, err := testutil.GatherAndCount(reg, "slicebus_dispatches_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got != 3 {
		t.Fatalf("want 3 counter series, got %d", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counts := map[string]float64{}

	for _, mf := range mfs {
		if mf.GetName() != "slicebus_dispatches_total" {
			continue
		}

		for _, m := range mf.GetMetric() {
			var kind, status string

			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "kind":
					kind = lp.GetValue()
				case "status":
					status = lp.GetValue()
				}
			}

			counts[kind+"/"+status] = m.GetCounter().GetValue()
		}
	}

	if counts["message.received/ok"] != 2 {
		t.Fatalf("ok count: %v", counts["message.received/ok"])
	}

	if counts["message.received/failed"] != 1 {
		t.Fatalf("failed count: %v", counts["message.received/failed"])
	}

	if counts["page.published/ok"] != 1 {
		t.Fatalf("page count: %v", counts["page.published/ok"])
	}
}

func TestProm_Forward_TracksLatency(t *testing.T) {
	reg := prometheus.NewRegistry()

	s, err := prom.New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rec := observe.Record{Kind: "message.received", Status: "ok", Elapsed: 30 * time.Millisecond}
	if err := s.Forward(t.Context(), rec); err != nil {
		t.Fatalf("forward: %v", err)
	}

	got, err := testutil.GatherAndCount(reg, "slicebus_dispatch_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got != 1 {
		t.Fatalf("want 1 histogram series, got %d", got)
	}
}

func TestProm_New_RejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := prom.New(reg); err != nil {
		t.Fatalf("first new: %v", err)
	}

	_, err := prom.New(reg)
	if err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	if !errors.Is(err, berr.ErrForwardFailed) {
		t.Fatalf("want ErrForwardFailed, got %v", err)
	}
}

// Package prom exposes dispatch outcomes as Prometheus metrics.
package prom

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// Sink counts dispatches by kind and status and tracks handler latency.
// It never fails a dispatch; Forward only errors when the caller's context
// is already done.
type Sink struct {
	dispatches *prometheus.CounterVec
	elapsed    *prometheus.HistogramVec
}

// Ensure Sink implements the contract.
var _ observe.Sink = (*Sink)(nil)

// New registers the sink's collectors on reg and returns the sink.
// Pass prometheus.DefaultRegisterer to publish on the default registry.
func New(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slicebus",
			Name:      "dispatches_total",
			Help:      "Handler dispatch outcomes by event kind and status.",
		}, []string{"kind", "status"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slicebus",
			Name:      "dispatch_duration_seconds",
			Help:      "Handler execution time by event kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{s.dispatches, s.elapsed} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom sink register: %w", errors.Join(berr.ErrForwardFailed, err))
		}
	}

	return s, nil
}

// Forward records the outcome on the collectors.
func (s *Sink) Forward(ctx context.Context, rec observe.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.dispatches.WithLabelValues(rec.Kind, rec.Status).Inc()
	s.elapsed.WithLabelValues(rec.Kind).Observe(rec.Elapsed.Seconds())

	return nil
}

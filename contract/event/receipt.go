package event

import (
	"errors"
	"time"
)

// Status classifies one handler outcome inside a dispatch.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
)

// Mode says how an event was dispatched.
type Mode string

const (
	ModeAsync Mode = "async"
	ModeSync  Mode = "sync"
)

// DispatchResult records a single handler outcome within one dispatch.
type DispatchResult struct {
	Subscriber string
	Status     Status
	Err        error
	Elapsed    time.Duration
}

// Receipt summarizes one publish. Async receipts carry no per-handler
// results; those surface through the observability sink instead.
type Receipt struct {
	EventID  string
	Kind     string
	Mode     Mode
	Handlers int
	Results  []DispatchResult
}

// Succeeded reports whether every recorded handler finished cleanly.
func (r Receipt) Succeeded() bool {
	for _, res := range r.Results {
		if res.Status != StatusOK {
			return false
		}
	}
	return true
}

// Failed returns the results that did not finish cleanly.
func (r Receipt) Failed() []DispatchResult {
	var out []DispatchResult
	for _, res := range r.Results {
		if res.Status != StatusOK {
			out = append(out, res)
		}
	}
	return out
}

// Err joins all handler errors, or returns nil when everything succeeded.
func (r Receipt) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

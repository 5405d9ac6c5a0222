package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
)

// Metadata travels with every event. The bus fills Timestamp and
// CorrelationID at publish time when the caller leaves them zero.
type Metadata struct {
	Timestamp     time.Time
	CorrelationID string
	Origin        string
}

// Event is one occurrence of a registered kind. Events are treated as
// immutable after publication; handlers must not mutate the payload.
type Event struct {
	ID       string
	Kind     string
	Payload  any
	Metadata Metadata
}

// NewID returns a fresh unique identifier for events and correlations.
func NewID() string { return uuid.NewString() }

// PayloadAs extracts the payload as P. It fails with ErrPayloadType when the
// event carries a payload of a different type.
func PayloadAs[P any](e Event) (P, error) {
	p, ok := e.Payload.(P)
	if !ok {
		var zero P
		return zero, fmt.Errorf("event %q payload is %T, want %T: %w", e.Kind, e.Payload, zero, berr.ErrPayloadType)
	}
	return p, nil
}

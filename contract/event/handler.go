package event

import "context"

// Handler consumes events of one kind.
// Implementations must be safe for concurrent use by multiple goroutines.
// A returned error is recorded per handler and never stops delivery to the
// remaining subscribers.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Responder marks a handler that can answer Request calls for its kind.
// The bus detects the capability by type assertion on the subscribed handler.
type Responder interface {
	Handler
	Respond(ctx context.Context, e Event) (any, error)
}

// ResponderFunc adapts a plain function to Responder. Handle delegates to
// Respond and discards the reply, so the same subscription serves both
// Publish and Request.
type ResponderFunc func(ctx context.Context, e Event) (any, error)

// Handle implements Handler.
func (f ResponderFunc) Handle(ctx context.Context, e Event) error {
	_, err := f(ctx, e)
	return err
}

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, e Event) (any, error) { return f(ctx, e) }

// Filter decides whether a subscription sees an event. A nil Filter passes
// every event. Filters must not block and must not mutate the event.
type Filter func(e Event) bool

package event

import "context"

// Registry manages the kind table. Every kind must be registered before it
// can be published or subscribed to.
type Registry interface {
	// RegisterKind adds a kind. Re-registering a name fails with
	// ErrKindExists even when the payload type matches.
	RegisterKind(k Kind) error
	// Kinds returns the registered kinds in registration order.
	Kinds() []Kind
}

// Subscriber manages handler attachment.
type Subscriber interface {
	// Subscribe attaches a handler to a registered kind.
	Subscribe(kind string, h Handler, opts ...SubscribeOption) (Subscription, error)
	// Unsubscribe removes a subscription. Removing one that is already gone
	// is a no-op.
	Unsubscribe(sub Subscription)
	// UnsubscribeOwner removes every subscription tagged with owner and
	// reports how many were dropped.
	UnsubscribeOwner(owner string) int
	// SubscriberCount reports the live subscriptions for a kind.
	SubscriberCount(kind string) int
}

// Publisher dispatches events to subscribers.
type Publisher interface {
	// Publish dispatches fire-and-forget: the event is queued and the call
	// returns without waiting for handlers. The receipt carries no results.
	Publish(ctx context.Context, kind string, payload any) (Receipt, error)
	// PublishSync dispatches await-all: handlers run in subscription order
	// and the receipt carries one result per handler.
	PublishSync(ctx context.Context, kind string, payload any) (Receipt, error)
}

// Requester asks the first Responder subscribed to a kind for an answer.
type Requester interface {
	// Request fails with ErrNoResponder when no subscriber of the kind
	// implements Responder, and with ErrRequestTimeout when the responder
	// does not answer in time.
	Request(ctx context.Context, kind string, payload any) (any, error)
}

// Bus combines the registry, subscription, dispatch and request capabilities
// of the in-process event fabric. One bus instance serves a whole
// application; slices reach it through the service container.
type Bus interface {
	Registry
	Subscriber
	Publisher
	Requester

	// Drain blocks until queued async work finishes or ctx expires.
	Drain(ctx context.Context) error
	// Close stops the bus. Publishing on a closed bus fails with
	// ErrBusClosed.
	Close() error
}

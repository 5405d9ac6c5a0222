package eventbus

import (
	"context"
	"fmt"
	"reflect"

	cevent "github.com/next-trace/scg-slice-bus/contract/event"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
)

// Subscribe attaches a typed handler to kind. The payload type P is checked
// against the kind's registration, so a mismatch fails at subscribe time
// instead of on the first event.
func Subscribe[P any](
	b *Bus,
	kind string,
	fn func(ctx context.Context, e cevent.Event, payload P) error,
	opts ...cevent.SubscribeOption,
) (cevent.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("subscribe %q: %w", kind, berr.ErrNilHandler)
	}

	want := reflect.TypeOf((*P)(nil)).Elem()

	b.mu.RLock()
	k, known := b.kinds[kind]
	b.mu.RUnlock()

	if !known {
		return nil, fmt.Errorf("subscribe %q: %w", kind, berr.ErrKindUnknown)
	}

	if !k.PayloadType().AssignableTo(want) {
		return nil, fmt.Errorf("subscribe %q: kind carries %s, handler wants %s: %w",
			kind, k.PayloadType(), want, berr.ErrPayloadType)
	}

	h := cevent.HandlerFunc(func(ctx context.Context, e cevent.Event) error {
		p, err := cevent.PayloadAs[P](e)
		if err != nil {
			return err
		}

		return fn(ctx, e, p)
	})

	return b.Subscribe(kind, h, opts...)
}

// Respond attaches a typed responder to kind, answering Request calls with R.
// Like Subscribe, the payload type is checked at registration time.
func Respond[P, R any](
	b *Bus,
	kind string,
	fn func(ctx context.Context, e cevent.Event, payload P) (R, error),
	opts ...cevent.SubscribeOption,
) (cevent.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("respond %q: %w", kind, berr.ErrNilHandler)
	}

	want := reflect.TypeOf((*P)(nil)).Elem()

	b.mu.RLock()
	k, known := b.kinds[kind]
	b.mu.RUnlock()

	if !known {
		return nil, fmt.Errorf("respond %q: %w", kind, berr.ErrKindUnknown)
	}

	if !k.PayloadType().AssignableTo(want) {
		return nil, fmt.Errorf("respond %q: kind carries %s, responder wants %s: %w",
			kind, k.PayloadType(), want, berr.ErrPayloadType)
	}

	h := cevent.ResponderFunc(func(ctx context.Context, e cevent.Event) (any, error) {
		p, err := cevent.PayloadAs[P](e)
		if err != nil {
			return nil, err
		}

		return fn(ctx, e, p)
	})

	return b.Subscribe(kind, h, opts...)
}

// Request asks the kind's responder and asserts the reply type.
func Request[R any](ctx context.Context, b *Bus, kind string, payload any) (R, error) {
	var zero R

	res, err := b.Request(ctx, kind, payload)
	if err != nil {
		return zero, err
	}

	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("request %q: reply is %T, want %T: %w", kind, res, zero, berr.ErrResponseType)
	}

	return r, nil
}

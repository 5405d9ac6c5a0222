package eventbus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	cevent "github.com/next-trace/scg-slice-bus/contract/event"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// chainNode records one dispatch frame. The chain travels in the context so
// nested publishes of the same kind can be cut off at maxDepth, and it is
// carried across the async boundary with the queued event.
type chainNode struct {
	kind   string
	parent *chainNode
}

func (n *chainNode) count(kind string) int {
	c := 0
	for cur := n; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			c++
		}
	}

	return c
}

type chainKey struct{}

func chainFrom(ctx context.Context) *chainNode {
	n, _ := ctx.Value(chainKey{}).(*chainNode)
	return n
}

func withChain(ctx context.Context, n *chainNode) context.Context {
	return context.WithValue(ctx, chainKey{}, n)
}

// prepare validates a publish call and materializes the event. It returns
// the subscription snapshot taken under the read lock.
func (b *Bus) prepare(ctx context.Context, kind string, payload any) (cevent.Event, []*subscription, error) {
	if chainFrom(ctx).count(kind) >= b.maxDepth {
		return cevent.Event{}, nil, fmt.Errorf("publish %q beyond depth %d: %w", kind, b.maxDepth, berr.ErrDispatchCycle)
	}

	b.mu.RLock()
	closed := b.closed
	k, known := b.kinds[kind]

	var subs []*subscription
	if known {
		subs = append([]*subscription(nil), b.subs[kind]...)
	}
	b.mu.RUnlock()

	if closed {
		return cevent.Event{}, nil, fmt.Errorf("publish %q: %w", kind, berr.ErrBusClosed)
	}

	if !known {
		return cevent.Event{}, nil, fmt.Errorf("publish %q: %w", kind, berr.ErrKindUnknown)
	}

	if payload != nil && !reflect.TypeOf(payload).AssignableTo(k.PayloadType()) {
		return cevent.Event{}, nil, fmt.Errorf("publish %q with %T, want %s: %w",
			kind, payload, k.PayloadType(), berr.ErrPayloadType)
	}

	corr := cevent.CorrelationFrom(ctx)
	if corr == "" {
		corr = cevent.NewID()
	}

	e := cevent.Event{
		ID:      cevent.NewID(),
		Kind:    kind,
		Payload: payload,
		Metadata: cevent.Metadata{
			Timestamp:     b.clk.Now(),
			CorrelationID: corr,
			Origin:        cevent.OriginFrom(ctx),
		},
	}

	return e, subs, nil
}

// Publish dispatches fire-and-forget: the event is appended to its kind's
// queue and the call returns immediately. Handlers run later on the bounded
// pool, in publish order per kind. The receipt carries no per-handler
// results; outcomes surface through the sink.
func (b *Bus) Publish(ctx context.Context, kind string, payload any) (cevent.Receipt, error) {
	e, subs, err := b.prepare(ctx, kind, payload)
	if err != nil {
		return cevent.Receipt{}, err
	}

	receipt := cevent.Receipt{EventID: e.ID, Kind: kind, Mode: cevent.ModeAsync, Handlers: len(subs)}
	if len(subs) == 0 {
		return receipt, nil
	}

	b.mu.RLock()
	q := b.queues[kind]
	b.mu.RUnlock()

	b.wg.Add(1)

	q.mu.Lock()
	q.items = append(q.items, pending{e: e, chain: chainFrom(ctx)})
	spawn := !q.draining
	if spawn {
		q.draining = true
	}
	q.mu.Unlock()

	if spawn {
		go b.drainQueue(q)
	}

	return receipt, nil
}

// PublishSync dispatches await-all on the caller's goroutine: handlers run
// sequentially in subscription order and the receipt carries one result per
// invoked handler. A failing handler never stops the rest.
func (b *Bus) PublishSync(ctx context.Context, kind string, payload any) (cevent.Receipt, error) {
	e, subs, err := b.prepare(ctx, kind, payload)
	if err != nil {
		return cevent.Receipt{}, err
	}

	receipt := cevent.Receipt{EventID: e.ID, Kind: kind, Mode: cevent.ModeSync, Handlers: len(subs)}
	if len(subs) == 0 {
		return receipt, nil
	}

	dctx := withChain(ctx, &chainNode{kind: kind, parent: chainFrom(ctx)})
	receipt.Results = b.deliver(dctx, subs, e)

	return receipt, nil
}

// drainQueue pops one kind's queue until it is empty. At most one drain
// goroutine runs per kind, which preserves per-kind publish order.
func (b *Bus) drainQueue(q *queue) {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()

			return
		}

		p := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		b.dispatchAsync(p)
		b.wg.Done()
	}
}

func (b *Bus) dispatchAsync(p pending) {
	if err := b.sem.Acquire(b.baseCtx, 1); err != nil {
		if b.logger != nil {
			b.logger.Warn("dropping queued event on close", "kind", p.e.Kind, "event_id", p.e.ID)
		}

		return
	}
	defer b.sem.Release(1)

	// Delivery-time snapshot: subscriptions removed while the event was
	// queued no longer receive it.
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[p.e.Kind]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	ctx := withChain(b.baseCtx, &chainNode{kind: p.e.Kind, parent: p.chain})
	b.deliver(ctx, subs, p.e)
}

// deliver runs the handler sequence for one event. Each outcome is recorded
// to the sink; filtered-out subscriptions are skipped silently.
func (b *Bus) deliver(ctx context.Context, subs []*subscription, e cevent.Event) []cevent.DispatchResult {
	results := make([]cevent.DispatchResult, 0, len(subs))

	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}

		res := b.invoke(ctx, sub, e)
		b.emit(e, res)
		results = append(results, res)
	}

	return results
}

// invoke runs one handler with panic recovery and the per-handler timeout.
// A timed-out handler is abandoned; its context is canceled so cooperative
// handlers can stop early.
func (b *Bus) invoke(ctx context.Context, sub *subscription, e cevent.Event) cevent.DispatchResult {
	hctx := cevent.WithCorrelation(ctx, e.Metadata.CorrelationID)
	if sub.owner != "" {
		hctx = cevent.WithOrigin(hctx, sub.owner)
	}

	hctx, cancel := context.WithCancel(hctx)
	defer cancel()

	start := b.clk.Now()
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler %q panicked (%v): %w", sub.name, r, berr.ErrHandlerPanic)
			}
		}()

		done <- sub.h.Handle(hctx, e)
	}()

	var expire <-chan time.Time

	if b.handlerTimeout > 0 {
		t := b.clk.Timer(b.handlerTimeout)
		defer t.Stop()

		expire = t.C
	}

	select {
	case err := <-done:
		elapsed := b.clk.Since(start)
		if err == nil {
			return cevent.DispatchResult{Subscriber: sub.name, Status: cevent.StatusOK, Elapsed: elapsed}
		}

		if !errors.Is(err, berr.ErrHandlerPanic) {
			err = fmt.Errorf("handler %q: %w: %w", sub.name, berr.ErrHandlerFailed, err)
		}

		return cevent.DispatchResult{Subscriber: sub.name, Status: cevent.StatusFailed, Err: err, Elapsed: elapsed}
	case <-expire:
		cancel()

		return cevent.DispatchResult{
			Subscriber: sub.name,
			Status:     cevent.StatusTimedOut,
			Err:        fmt.Errorf("handler %q after %s: %w", sub.name, b.handlerTimeout, berr.ErrHandlerTimeout),
			Elapsed:    b.clk.Since(start),
		}
	}
}

// Request delivers the event to the first subscriber implementing Responder
// and returns its answer. Other subscribers do not see the event; use
// Publish for fan-out.
func (b *Bus) Request(ctx context.Context, kind string, payload any) (any, error) {
	e, subs, err := b.prepare(ctx, kind, payload)
	if err != nil {
		return nil, err
	}

	var (
		responder cevent.Responder
		sub       *subscription
	)

	for _, s := range subs {
		r, ok := s.h.(cevent.Responder)
		if !ok {
			continue
		}

		if s.filter != nil && !s.filter(e) {
			continue
		}

		responder, sub = r, s

		break
	}

	if responder == nil {
		return nil, fmt.Errorf("request %q: %w", kind, berr.ErrNoResponder)
	}

	hctx := withChain(ctx, &chainNode{kind: kind, parent: chainFrom(ctx)})
	hctx = cevent.WithCorrelation(hctx, e.Metadata.CorrelationID)

	if sub.owner != "" {
		hctx = cevent.WithOrigin(hctx, sub.owner)
	}

	hctx, cancel := context.WithCancel(hctx)
	defer cancel()

	type reply struct {
		v   any
		err error
	}

	start := b.clk.Now()
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("responder %q panicked (%v): %w", sub.name, r, berr.ErrHandlerPanic)}
			}
		}()

		v, rerr := responder.Respond(hctx, e)
		done <- reply{v: v, err: rerr}
	}()

	var expire <-chan time.Time

	if b.requestTimeout > 0 {
		t := b.clk.Timer(b.requestTimeout)
		defer t.Stop()

		expire = t.C
	}

	select {
	case r := <-done:
		res := cevent.DispatchResult{Subscriber: sub.name, Status: cevent.StatusOK, Elapsed: b.clk.Since(start)}
		if r.err != nil {
			res.Status = cevent.StatusFailed
			res.Err = r.err
		}

		b.emit(e, res)

		return r.v, r.err
	case <-expire:
		cancel()
		b.emit(e, cevent.DispatchResult{
			Subscriber: sub.name,
			Status:     cevent.StatusTimedOut,
			Err:        berr.ErrRequestTimeout,
			Elapsed:    b.clk.Since(start),
		})

		return nil, fmt.Errorf("request %q after %s: %w", kind, b.requestTimeout, berr.ErrRequestTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("request %q: %w", kind, ctx.Err())
	}
}

// emit forwards one handler outcome to the sink. Sink errors are logged and
// never fail the dispatch.
func (b *Bus) emit(e cevent.Event, res cevent.DispatchResult) {
	if b.sink == nil {
		return
	}

	rec := observe.Record{
		EventID:       e.ID,
		Kind:          e.Kind,
		Subscriber:    res.Subscriber,
		Origin:        e.Metadata.Origin,
		CorrelationID: e.Metadata.CorrelationID,
		Status:        string(res.Status),
		Elapsed:       res.Elapsed,
		Timestamp:     b.clk.Now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}

	if err := b.sink.Forward(b.baseCtx, rec); err != nil && b.logger != nil {
		b.logger.Warn("dispatch record not forwarded",
			"kind", e.Kind, "subscriber", res.Subscriber, "err", err)
	}
}

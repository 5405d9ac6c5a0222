package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/semaphore"

	cevent "github.com/next-trace/scg-slice-bus/contract/event"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
)

// Defaults applied by New when no option overrides them.
const (
	DefaultMaxDepth       = 8
	DefaultPoolSize       = 10
	DefaultHandlerTimeout = 10 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Bus is the in-process event fabric: a kind registry, a subscription table
// and a dispatcher with fire-and-forget and await-all modes.
//
// Bus is concurrency-safe and contains no global state. Construct one per
// application and share it through the service container.
type Bus struct {
	mu     sync.RWMutex
	kinds  map[string]cevent.Kind
	order  []string
	subs   map[string][]*subscription
	names  map[string]struct{}
	kseq   map[string]uint64
	queues map[string]*queue
	closed bool

	// baseCtx is canceled by Close; async dispatch and sinks run on it so
	// queued work stops when the bus does.
	baseCtx context.Context
	cancel  context.CancelFunc
	// wg counts accepted fire-and-forget events until their handler
	// sequence finishes; Drain waits on it.
	wg  sync.WaitGroup
	sem *semaphore.Weighted

	clk            clock.Clock
	logger         *slog.Logger
	sink           observe.Sink
	maxDepth       int
	poolSize       int
	handlerTimeout time.Duration
	requestTimeout time.Duration
}

var _ cevent.Bus = (*Bus)(nil)

type subscription struct {
	kind   string
	name   string
	owner  string
	filter cevent.Filter
	h      cevent.Handler
}

func (s *subscription) Kind() string  { return s.kind }
func (s *subscription) Name() string  { return s.name }
func (s *subscription) Owner() string { return s.owner }

// queue holds the pending fire-and-forget events of one kind. Events of the
// same kind are dispatched in publish order; draining marks an active drain
// goroutine so at most one runs per kind.
type queue struct {
	mu       sync.Mutex
	items    []pending
	draining bool
}

type pending struct {
	e     cevent.Event
	chain *chainNode
}

// Option configures a Bus instance.
type Option func(*Bus)

// WithLogger sets the structured logger. A nil logger disables bus logging.
func WithLogger(l *slog.Logger) Option { return func(b *Bus) { b.logger = l } }

// WithSink forwards every terminal handler outcome to s.
func WithSink(s observe.Sink) Option { return func(b *Bus) { b.sink = s } }

// WithClock injects the time source, for tests.
func WithClock(c clock.Clock) Option {
	return func(b *Bus) {
		if c != nil {
			b.clk = c
		}
	}
}

// WithMaxDepth bounds nested same-kind publishes before ErrDispatchCycle.
func WithMaxDepth(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// WithPoolSize bounds how many fire-and-forget events dispatch concurrently.
func WithPoolSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.poolSize = n
		}
	}
}

// WithHandlerTimeout bounds a single handler invocation. Zero disables the
// bound.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) { b.handlerTimeout = d }
}

// WithRequestTimeout bounds how long Request waits for a responder. Zero
// disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(b *Bus) { b.requestTimeout = d }
}

// New constructs a Bus with the given options applied over the defaults.
func New(opts ...Option) *Bus {
	b := &Bus{
		kinds:          make(map[string]cevent.Kind),
		subs:           make(map[string][]*subscription),
		names:          make(map[string]struct{}),
		kseq:           make(map[string]uint64),
		queues:         make(map[string]*queue),
		clk:            clock.New(),
		maxDepth:       DefaultMaxDepth,
		poolSize:       DefaultPoolSize,
		handlerTimeout: DefaultHandlerTimeout,
		requestTimeout: DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.baseCtx, b.cancel = context.WithCancel(context.Background())
	b.sem = semaphore.NewWeighted(int64(b.poolSize))

	return b
}

// RegisterKind adds a kind to the registry. Names are unique; re-registering
// one fails with ErrKindExists even when the payload type matches.
func (b *Bus) RegisterKind(k cevent.Kind) error {
	if !k.Valid() {
		return fmt.Errorf("register kind %q: %w", k.Name(), berr.ErrKindInvalid)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("register kind %q: %w", k.Name(), berr.ErrBusClosed)
	}

	if _, exists := b.kinds[k.Name()]; exists {
		return fmt.Errorf("register kind %q: %w", k.Name(), berr.ErrKindExists)
	}

	b.kinds[k.Name()] = k
	b.order = append(b.order, k.Name())
	b.queues[k.Name()] = &queue{}

	return nil
}

// Kinds returns the registered kinds in registration order.
func (b *Bus) Kinds() []cevent.Kind {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]cevent.Kind, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.kinds[name])
	}

	return out
}

// Subscribe attaches a handler to a registered kind. Handlers are invoked in
// subscription order within a dispatch.
func (b *Bus) Subscribe(kind string, h cevent.Handler, opts ...cevent.SubscribeOption) (cevent.Subscription, error) {
	if h == nil {
		return nil, fmt.Errorf("subscribe %q: %w", kind, berr.ErrNilHandler)
	}

	var cfg cevent.SubscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("subscribe %q: %w", kind, berr.ErrBusClosed)
	}

	if _, ok := b.kinds[kind]; !ok {
		return nil, fmt.Errorf("subscribe %q: %w", kind, berr.ErrKindUnknown)
	}

	name := cfg.Name
	if name == "" {
		name = b.nextNameLocked(kind)
	} else if _, taken := b.names[name]; taken {
		return nil, fmt.Errorf("subscribe %q as %q: %w", kind, name, berr.ErrSubscriptionExists)
	}

	sub := &subscription{kind: kind, name: name, owner: cfg.Owner, filter: cfg.Filter, h: h}
	b.subs[kind] = append(b.subs[kind], sub)
	b.names[name] = struct{}{}

	return sub, nil
}

// nextNameLocked assigns "<kind>#<n>", skipping names already claimed
// explicitly. Callers hold b.mu.
func (b *Bus) nextNameLocked(kind string) string {
	for {
		b.kseq[kind]++
		name := fmt.Sprintf("%s#%d", kind, b.kseq[kind])
		if _, taken := b.names[name]; !taken {
			return name
		}
	}
}

// Unsubscribe removes a subscription. Removing one that is already gone is a
// no-op, so double unsubscription is safe.
func (b *Bus) Unsubscribe(sub cevent.Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(sub.Kind(), sub.Name())
}

func (b *Bus) removeLocked(kind, name string) {
	list := b.subs[kind]
	for i, s := range list {
		if s.name == name {
			b.subs[kind] = append(list[:i:i], list[i+1:]...)
			delete(b.names, name)
			return
		}
	}
}

// UnsubscribeOwner removes every subscription tagged with owner and reports
// how many were dropped. Used by the container to scrub a service's
// subscriptions on shutdown.
func (b *Bus) UnsubscribeOwner(owner string) int {
	if owner == "" {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0

	for kind, list := range b.subs {
		var kept []*subscription

		for _, s := range list {
			if s.owner == owner {
				delete(b.names, s.name)
				removed++

				continue
			}

			kept = append(kept, s)
		}

		b.subs[kind] = kept
	}

	return removed
}

// SubscriberCount reports the live subscriptions for a kind.
func (b *Bus) SubscriberCount(kind string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[kind])
}

// Drain blocks until every accepted fire-and-forget event has finished
// dispatching, or until ctx expires.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %w", ctx.Err())
	}
}

// Close stops the bus. Queued fire-and-forget events that have not started
// dispatching are dropped; call Drain first for a graceful stop. Close is
// idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}

	b.closed = true
	b.mu.Unlock()

	b.cancel()

	return nil
}

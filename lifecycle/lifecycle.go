package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cevent "github.com/next-trace/scg-slice-bus/contract/event"
	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	csvc "github.com/next-trace/scg-slice-bus/contract/service"
)

// DefaultShutdownGrace bounds how long Stop spends on teardown and drain.
const DefaultShutdownGrace = 10 * time.Second

// Runtime drives an application composed of container services and a bus:
// Start constructs every registered service, Stop tears them down, drains
// queued events and closes the bus.
type Runtime struct {
	services csvc.Container
	bus      cevent.Bus
	logger   *slog.Logger
	grace    time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
}

// Option configures a Runtime instance.
type Option func(*Runtime)

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option { return func(r *Runtime) { r.logger = l } }

// WithShutdownGrace bounds Stop's teardown and drain. Zero removes the
// bound; Stop then runs on the caller's context alone.
func WithShutdownGrace(d time.Duration) Option { return func(r *Runtime) { r.grace = d } }

// New constructs a Runtime over a service container and a bus.
func New(services csvc.Container, bus cevent.Bus, opts ...Option) *Runtime {
	r := &Runtime{services: services, bus: bus, grace: DefaultShutdownGrace}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start resolves every registered service in registration order, which
// surfaces configuration mistakes (unknown dependencies, cycles, broken
// factories) before the app serves anything. On failure the services built
// so far are unwound in reverse order and the cause is returned.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("start: %w", berr.ErrRuntimeStarted)
	}

	r.started = true
	r.mu.Unlock()

	keys := r.services.Keys()

	if r.logger != nil {
		r.logger.Info("runtime starting", "services", len(keys))
	}

	for _, key := range keys {
		if _, err := r.services.Resolve(ctx, key); err != nil {
			if r.logger != nil {
				r.logger.Error("startup aborted", "service", key, "err", err)
			}

			err = fmt.Errorf("start %q: %w", key, err)
			if derr := r.services.ShutdownAll(ctx); derr != nil {
				return errors.Join(err, derr)
			}

			return err
		}
	}

	if r.logger != nil {
		r.logger.Info("runtime started", "services", len(r.services.Built()))
	}

	return nil
}

// Stop tears the application down: services shut down in reverse
// construction order, queued events drain, then the bus closes. All errors
// are joined so a bad teardown hook cannot hide the rest. Stop is
// idempotent.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}

	r.stopped = true
	r.mu.Unlock()

	if r.grace > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.grace)
		defer cancel()
	}

	var errs []error

	if err := r.services.ShutdownAll(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := r.bus.Drain(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := r.bus.Close(); err != nil {
		errs = append(errs, err)
	}

	if r.logger != nil {
		r.logger.Info("runtime stopped")
	}

	return errors.Join(errs...)
}

// Run starts the runtime, blocks until ctx is canceled, then stops. The stop
// phase runs on a fresh context so cancellation of ctx does not cut the
// shutdown grace short.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return r.Stop(context.Background())
}

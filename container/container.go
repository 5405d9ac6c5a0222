package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	csvc "github.com/next-trace/scg-slice-bus/contract/service"
)

// Container is a lazy service registry. Descriptors are registered up front;
// instances are constructed on first resolve and memoized, error included.
//
// Container is concurrency-safe. Factories run outside the registry lock, so
// a factory may resolve its declared dependencies without deadlocking.
type Container struct {
	mu    sync.RWMutex
	descs map[string]*descriptor
	order []string
	built []string

	scrub  func(owner string)
	logger *slog.Logger
}

var _ csvc.Container = (*Container)(nil)

type descriptor struct {
	key     string
	factory csvc.Factory
	deps    []string

	once     sync.Once
	instance any
	err      error
	built    bool
	shut     bool
}

// Option configures a Container instance.
type Option func(*Container)

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option { return func(c *Container) { c.logger = l } }

// WithScrubber runs fn with the service key as a service shuts down, before
// its own Shutdown hook. Wire it to the bus's UnsubscribeOwner so a stopping
// service loses its subscriptions first.
func WithScrubber(fn func(owner string)) Option { return func(c *Container) { c.scrub = fn } }

// New constructs an empty Container.
func New(opts ...Option) *Container {
	c := &Container{descs: make(map[string]*descriptor)}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Register adds a descriptor under key. The factory will only be handed the
// dependencies named in deps. Registering a key twice fails with
// ErrServiceExists.
func (c *Container) Register(key string, factory csvc.Factory, deps ...string) error {
	if key == "" || factory == nil {
		return fmt.Errorf("register %q: %w", key, berr.ErrDescriptorInvalid)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.descs[key]; exists {
		return fmt.Errorf("register %q: %w", key, berr.ErrServiceExists)
	}

	c.descs[key] = &descriptor{key: key, factory: factory, deps: append([]string(nil), deps...)}
	c.order = append(c.order, key)

	return nil
}

// Keys returns all registered keys in registration order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.order...)
}

// Built returns the keys of live constructed services in construction order.
func (c *Container) Built() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.built...)
}

// Resolve returns the memoized instance for key, constructing it on first
// use. Construction failures are memoized too: a broken service stays broken
// rather than being retried.
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	c.mu.RLock()
	d, known := c.descs[key]

	var shut bool
	if known {
		shut = d.shut
	}
	c.mu.RUnlock()

	if !known {
		return nil, fmt.Errorf("resolve %q: %w", key, berr.ErrServiceUnknown)
	}

	if shut {
		return nil, fmt.Errorf("resolve %q: %w", key, berr.ErrServiceShutdown)
	}

	// Cycles are detected on the declared graph before any factory runs, so
	// two goroutines resolving the halves of a cycle fail instead of
	// deadlocking on each other's construction.
	if err := c.checkCycle(key); err != nil {
		return nil, err
	}

	return c.build(ctx, d)
}

func (c *Container) build(ctx context.Context, d *descriptor) (any, error) {
	d.once.Do(func() {
		inst, err := d.factory(ctx, &depsView{c: c, d: d, ctx: ctx})
		if err != nil {
			d.err = fmt.Errorf("build %q: %w: %w", d.key, berr.ErrServiceConstruction, err)

			if c.logger != nil {
				c.logger.Error("service construction failed", "service", d.key, "err", err)
			}

			return
		}

		d.instance = inst

		c.mu.Lock()
		d.built = true
		c.built = append(c.built, d.key)
		c.mu.Unlock()

		if c.logger != nil {
			c.logger.Debug("service constructed", "service", d.key)
		}
	})

	if d.err != nil {
		return nil, d.err
	}

	return d.instance, nil
}

// checkCycle walks the declared dependency graph from root. Dependencies on
// unregistered keys are ignored here; they surface as ErrServiceUnknown when
// the factory asks for them.
func (c *Container) checkCycle(root string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	const (
		visiting = 1
		done     = 2
	)

	state := make(map[string]int, len(c.descs))

	var path []string

	var visit func(key string) error
	visit = func(key string) error {
		d, known := c.descs[key]
		if !known {
			return nil
		}

		switch state[key] {
		case visiting:
			cycle := strings.Join(append(path, key), " -> ")
			return fmt.Errorf("resolve %q: %s: %w", root, cycle, berr.ErrCircularDependency)
		case done:
			return nil
		}

		state[key] = visiting
		path = append(path, key)

		for _, dep := range d.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[key] = done

		return nil
	}

	return visit(root)
}

// Shutdown tears down one built service: the scrubber runs first, then the
// instance's Shutdown hook if it implements service.Shutdowner. Shutting
// down a service that was never built is a no-op.
func (c *Container) Shutdown(ctx context.Context, key string) error {
	c.mu.Lock()
	d, known := c.descs[key]

	if !known {
		c.mu.Unlock()
		return fmt.Errorf("shutdown %q: %w", key, berr.ErrServiceUnknown)
	}

	if !d.built || d.shut {
		c.mu.Unlock()
		return nil
	}

	d.shut = true
	inst := d.instance

	for i, k := range c.built {
		if k == key {
			c.built = append(c.built[:i:i], c.built[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	return c.teardown(ctx, key, inst)
}

// ShutdownAll tears down every built service in reverse construction order,
// joining their errors. It keeps going past failures so one bad hook cannot
// strand the services behind it.
func (c *Container) ShutdownAll(ctx context.Context) error {
	c.mu.RLock()
	keys := append([]string(nil), c.built...)
	c.mu.RUnlock()

	var errs []error

	for i := len(keys) - 1; i >= 0; i-- {
		if err := c.Shutdown(ctx, keys[i]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Container) teardown(ctx context.Context, key string, inst any) error {
	if c.scrub != nil {
		c.scrub(key)
	}

	if s, ok := inst.(csvc.Shutdowner); ok {
		if err := s.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown %q: %w", key, err)
		}
	}

	if c.logger != nil {
		c.logger.Debug("service shut down", "service", key)
	}

	return nil
}

// depsView is the restricted dependency accessor handed to factories.
type depsView struct {
	c   *Container
	d   *descriptor
	ctx context.Context
}

func (v *depsView) Key() string { return v.d.key }

func (v *depsView) Get(key string) (any, error) {
	declared := false

	for _, dep := range v.d.deps {
		if dep == key {
			declared = true
			break
		}
	}

	if !declared {
		return nil, fmt.Errorf("service %q did not declare dependency %q: %w", v.d.key, key, berr.ErrDependencyUndeclared)
	}

	return v.c.Resolve(v.ctx, key)
}

// Resolve resolves key on c and asserts the instance's concrete type.
func Resolve[T any](ctx context.Context, c *Container, key string) (T, error) {
	var zero T

	v, err := c.Resolve(ctx, key)
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %q is %T, want %T: %w", key, v, zero, berr.ErrDependencyType)
	}

	return t, nil
}

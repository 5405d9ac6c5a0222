package service

import (
	"context"
	"fmt"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
)

// Factory builds one service instance. It receives only the dependencies its
// descriptor declared; asking for anything else fails.
// Factories are invoked at most once per key; the container memoizes the
// result, error included.
type Factory func(ctx context.Context, deps Deps) (any, error)

// Deps is the dependency view handed to a factory.
type Deps interface {
	// Key names the service under construction.
	Key() string
	// Get resolves a declared dependency. Undeclared keys fail with
	// ErrDependencyUndeclared.
	Get(key string) (any, error)
}

// Shutdowner marks a service that releases resources on container shutdown.
// The container detects the capability by type assertion on the built
// instance.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Resolver resolves constructed services by key.
// Implementations must be safe for concurrent use by multiple goroutines.
type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
}

// Container registers service descriptors and memoizes their instances.
type Container interface {
	Resolver

	// Register adds a descriptor. Registering a key twice fails with
	// ErrServiceExists.
	Register(key string, factory Factory, deps ...string) error
	// Keys returns all registered keys in registration order.
	Keys() []string
	// Built returns the keys of live constructed services in construction
	// order.
	Built() []string
	// Shutdown tears down one built service. Later resolves of the key fail
	// with ErrServiceShutdown; shutting down a service that was never built
	// is a no-op.
	Shutdown(ctx context.Context, key string) error
	// ShutdownAll tears down every built service in reverse construction
	// order, joining their errors.
	ShutdownAll(ctx context.Context) error
}

// Dep resolves a declared dependency and asserts its concrete type.
func Dep[T any](deps Deps, key string) (T, error) {
	v, err := deps.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("dependency %q is %T, want %T: %w", key, v, zero, berr.ErrDependencyType)
	}
	return t, nil
}

// Package memory assembles a bus, container and runtime backed by the
// in-memory sink, for tests, examples and single-process apps.
package memory

import (
	"log/slog"

	"github.com/next-trace/scg-slice-bus/adapters/inmemory"
	"github.com/next-trace/scg-slice-bus/config"
	"github.com/next-trace/scg-slice-bus/container"
	"github.com/next-trace/scg-slice-bus/eventbus"
	"github.com/next-trace/scg-slice-bus/lifecycle"
)

// App bundles the pieces a slice application is composed from. The zero
// value is not usable; construct one with New or NewWithConfig.
type App struct {
	Bus      *eventbus.Bus
	Services *container.Container
	Runtime  *lifecycle.Runtime
	Sink     *inmemory.Sink
}

// New wires an App with defaults and returns it along with a cleanup
// function that closes the bus.
func New() (*App, func()) {
	return NewWithConfig(config.Default(), nil)
}

// NewWithConfig wires an App from cfg's bus and runtime sections. The
// container scrubs a service's subscriptions when it shuts the service down.
func NewWithConfig(cfg config.Config, logger *slog.Logger) (*App, func()) {
	sink := inmemory.New()

	bus := eventbus.New(
		eventbus.WithLogger(logger),
		eventbus.WithSink(sink),
		eventbus.WithPoolSize(cfg.Bus.PoolSize),
		eventbus.WithMaxDepth(cfg.Bus.MaxDepth),
		eventbus.WithHandlerTimeout(cfg.Bus.HandlerTimeout.Std()),
		eventbus.WithRequestTimeout(cfg.Bus.RequestTimeout.Std()),
	)

	services := container.New(
		container.WithLogger(logger),
		container.WithScrubber(func(owner string) { bus.UnsubscribeOwner(owner) }),
	)

	runtime := lifecycle.New(services, bus,
		lifecycle.WithLogger(logger),
		lifecycle.WithShutdownGrace(cfg.Runtime.ShutdownGrace.Std()),
	)

	app := &App{Bus: bus, Services: services, Runtime: runtime, Sink: sink}
	cleanup := func() { _ = bus.Close() }

	return app, cleanup
}

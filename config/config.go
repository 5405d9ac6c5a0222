package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
)

// Duration wraps time.Duration so YAML can carry values like "250ms" or
// "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration node: %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config carries the tunables of a slice-bus application.
type Config struct {
	Bus     Bus     `yaml:"bus"`
	Runtime Runtime `yaml:"runtime"`
	Sinks   Sinks   `yaml:"sinks"`
}

// Bus configures the event bus.
type Bus struct {
	// PoolSize bounds how many fire-and-forget events dispatch concurrently.
	PoolSize int `yaml:"pool_size"`
	// MaxDepth bounds nested same-kind publishes.
	MaxDepth int `yaml:"max_depth"`
	// HandlerTimeout bounds one handler invocation. Zero disables the bound.
	HandlerTimeout Duration `yaml:"handler_timeout"`
	// RequestTimeout bounds how long Request waits for a responder.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Runtime configures the lifecycle manager.
type Runtime struct {
	// ShutdownGrace bounds teardown and drain during Stop.
	ShutdownGrace Duration `yaml:"shutdown_grace"`
}

// Sinks configures the optional dispatch-record sinks. Disabled sinks are
// ignored entirely.
type Sinks struct {
	NATS     NATS     `yaml:"nats"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	Kafka    Kafka    `yaml:"kafka"`
}

// NATS configures the NATS dispatch-record sink.
type NATS struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// RabbitMQ configures the RabbitMQ dispatch-record sink.
type RabbitMQ struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// Kafka configures the Kafka dispatch-record sink.
type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration used when a field is absent from the
// loaded document.
func Default() Config {
	return Config{
		Bus: Bus{
			PoolSize:       10,
			MaxDepth:       8,
			HandlerTimeout: Duration(10 * time.Second),
			RequestTimeout: Duration(5 * time.Second),
		},
		Runtime: Runtime{
			ShutdownGrace: Duration(10 * time.Second),
		},
		Sinks: Sinks{
			NATS:     NATS{Subject: "bus.dispatch"},
			RabbitMQ: RabbitMQ{Exchange: "bus.dispatch", RoutingKey: "record"},
			Kafka:    Kafka{Topic: "bus.dispatch"},
		},
	}
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

// Validate reports the first structural problem in the configuration.
func (c Config) Validate() error {
	if c.Bus.PoolSize < 1 {
		return fmt.Errorf("bus.pool_size %d: %w", c.Bus.PoolSize, berr.ErrConfigInvalid)
	}

	if c.Bus.MaxDepth < 1 {
		return fmt.Errorf("bus.max_depth %d: %w", c.Bus.MaxDepth, berr.ErrConfigInvalid)
	}

	if c.Bus.HandlerTimeout < 0 || c.Bus.RequestTimeout < 0 || c.Runtime.ShutdownGrace < 0 {
		return fmt.Errorf("negative duration: %w", berr.ErrConfigInvalid)
	}

	if c.Sinks.NATS.Enabled && c.Sinks.NATS.URL == "" {
		return fmt.Errorf("sinks.nats.url required when enabled: %w", berr.ErrConfigInvalid)
	}

	if c.Sinks.RabbitMQ.Enabled && c.Sinks.RabbitMQ.URL == "" {
		return fmt.Errorf("sinks.rabbitmq.url required when enabled: %w", berr.ErrConfigInvalid)
	}

	if c.Sinks.Kafka.Enabled && len(c.Sinks.Kafka.Brokers) == 0 {
		return fmt.Errorf("sinks.kafka.brokers required when enabled: %w", berr.ErrConfigInvalid)
	}

	return nil
}

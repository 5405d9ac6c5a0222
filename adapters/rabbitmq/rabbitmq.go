package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
	"github.com/next-trace/scg-slice-bus/contract/observe"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the topic exchange records are published to when
	// none is configured.
	DefaultExchange = "bus.dispatch"
	// DefaultRoutingKey is the routing key prefix used when none is configured.
	DefaultRoutingKey = "record"
)

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Sink forwards dispatch records to RabbitMQ using an injected Publisher.
// Records are published as JSON with routing key "<prefix>.<kind>", so a
// topic binding of "<prefix>.#" receives everything.
type Sink struct {
	Publisher  Publisher
	Exchange   string
	RoutingKey string
}

var _ observe.Sink = (*Sink)(nil)

func New(p Publisher) *Sink { return &Sink{Publisher: p} }

// NewWithRouting allows configuring the exchange and routing key prefix.
func NewWithRouting(p Publisher, exchange, routingKey string) *Sink {
	return &Sink{Publisher: p, Exchange: exchange, RoutingKey: routingKey}
}

// Forward serializes the record and publishes it.
func (s *Sink) Forward(ctx context.Context, rec observe.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rabbitmq forward serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := PubMsg{
		Exchange:   s.exchange(),
		RoutingKey: s.routingFor(rec),
		Body:       body,
		Headers:    recordHeaders(rec),
	}
	if err := s.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq forward publish: %w", errors.Join(berr.ErrForwardFailed, err))
	}

	return nil
}

func (s *Sink) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Publisher == nil {
		return fmt.Errorf("rabbitmq forward: %w", berr.ErrForwardFailed)
	}

	return nil
}

func (s *Sink) exchange() string {
	if s.Exchange != "" {
		return s.Exchange
	}

	return DefaultExchange
}

func (s *Sink) routingFor(rec observe.Record) string {
	prefix := s.RoutingKey
	if prefix == "" {
		prefix = DefaultRoutingKey
	}

	if rec.Kind == "" {
		return prefix
	}

	return prefix + "." + rec.Kind
}

func recordHeaders(rec observe.Record) map[string]string {
	h := map[string]string{
		"kind":   rec.Kind,
		"status": rec.Status,
	}

	if rec.CorrelationID != "" {
		h["correlation-id"] = rec.CorrelationID
	}

	return h
}

type amqpChannelPublisher struct{ ch *amqp.Channel }

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	return p.ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:     h,
			Body:        m.Body,
			ContentType: "application/json",
		},
	)
}

// NewWithAMQPChannel wraps an existing channel. The caller owns the channel
// lifecycle; declare the exchange before forwarding.
func NewWithAMQPChannel(ch *amqp.Channel) *Sink {
	return &Sink{Publisher: amqpChannelPublisher{ch: ch}}
}

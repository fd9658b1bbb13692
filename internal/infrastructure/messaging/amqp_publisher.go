// Package messaging forwards selected domain events to RabbitMQ so other
// systems (invoice signing, accounting exports) can follow allocations.
package messaging

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/facturacion/backend/internal/infrastructure/event"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeTopic is the exchange kind the publisher declares
const ExchangeTopic = "topic"

// ForwardedEventTypes are the events published to the broker
var ForwardedEventTypes = []string{
	organization.EventTypeSequenceAllocated,
	organization.EventTypeCountersOverridden,
}

// amqpChannel is the subset of *amqp.Channel the publisher uses
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher is an event handler that publishes events as JSON envelopes
// on a topic exchange. The routing key is "<prefix>.<event type>".
type AMQPPublisher struct {
	conn       *amqp.Connection
	ch         amqpChannel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// DialRetry controls connection attempts at startup
type DialRetry struct {
	Attempts int
	Wait     time.Duration
}

// Dial connects to the broker with exponential backoff
func Dial(url string, retry DialRetry, logger *zap.Logger) (*amqp.Connection, error) {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	wait := retry.Wait
	var err error
	for i := 0; i < retry.Attempts; i++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(url); err == nil {
			return conn, nil
		}
		if i == retry.Attempts-1 {
			break
		}
		logger.Warn("RabbitMQ connection attempt failed",
			zap.Int("attempt", i+1),
			zap.Duration("retry_in", wait),
			zap.Error(err))
		time.Sleep(wait)
		wait = time.Duration(math.Pow(2, float64(i+1))) * retry.Wait
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
}

// NewAMQPPublisher connects to RabbitMQ and declares the exchange
func NewAMQPPublisher(cfg config.MessagingConfig, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := Dial(cfg.URL, DialRetry{Attempts: 5, Wait: time.Second}, logger)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	p, err := newPublisher(ch, cfg.Exchange, cfg.RoutingKey, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch amqpChannel, exchange, routingKey string, logger *zap.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,      // name
		ExchangeTopic, // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// EventTypes returns the forwarded event types
func (p *AMQPPublisher) EventTypes() []string {
	return ForwardedEventTypes
}

// RoutingKey returns the routing key used for an event type
func (p *AMQPPublisher) RoutingKey(eventType string) string {
	return p.routingKey + "." + eventType
}

// Handle publishes the event. Messages are persistent and carry the event
// ID as message ID so consumers can deduplicate.
func (p *AMQPPublisher) Handle(ctx context.Context, ev shared.DomainEvent) error {
	env, err := event.NewEnvelope(ev)
	if err != nil {
		return err
	}
	body, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		p.RoutingKey(env.Type),
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    env.ID.String(),
			Type:         env.Type,
			Timestamp:    env.OccurredAt,
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{"channel_id": env.ChannelID.String()},
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", env.Type, err)
	}
	p.logger.Debug("Published event to RabbitMQ",
		zap.String("event_type", env.Type),
		zap.String("event_id", env.ID.String()))
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ shared.EventHandler = (*AMQPPublisher)(nil)

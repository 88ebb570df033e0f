package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher fans pipeline events out to a topic exchange, routed by event type.
type AMQPPublisher struct {
	ch       Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher declares the exchange and returns a publisher.
func NewAMQPPublisher(ch Channel, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, logger: logger}, nil
}

// Attach subscribes the publisher to every event type on d.
func (p *AMQPPublisher) Attach(d Dispatcher) {
	if p == nil || d == nil {
		return
	}
	for _, eventType := range AllEventTypes {
		d.Subscribe(eventType, p.Handle)
	}
}

// Handle publishes one event as persistent JSON.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.Debug("event published", zap.String("event_type", string(event.Type)), zap.String("lead_id", event.LeadID))
	return nil
}

// Connection holds an AMQP connection and its publishing channel.
type Connection struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// Dial opens a connection and a channel.
func Dial(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return &Connection{Conn: conn, Ch: ch}, nil
}

// Close closes the channel and the connection.
func (c *Connection) Close() {
	if c == nil {
		return
	}
	if c.Ch != nil {
		_ = c.Ch.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

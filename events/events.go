// Package events publishes order lifecycle messages for downstream consumers
// such as a warehouse or notification worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/models"
)

// Event types.
const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// OrderMessage is the JSON body published for every order event.
type OrderMessage struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Status     models.OrderStatus `json:"status"`
	Items      []models.OrderItem `json:"items"`
	Total      float64            `json:"total"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NewOrderMessage builds the message for order.
func NewOrderMessage(eventType string, order models.Order, at time.Time) OrderMessage {
	return OrderMessage{
		Type:       eventType,
		OrderID:    order.ID.Hex(),
		UserID:     order.UserID.Hex(),
		Status:     order.Status,
		Items:      order.Items,
		Total:      order.Total,
		OccurredAt: at,
	}
}

// Publisher sends order events.
type Publisher interface {
	Publish(ctx context.Context, msg OrderMessage) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, msg OrderMessage) error {
	slog.DebugContext(ctx, "order event dropped, no broker configured", "type", msg.Type, "order_id", msg.OrderID)
	return nil
}

// RabbitPublisher publishes to a durable queue on the default exchange.
type RabbitPublisher struct {
	conn  *amqp.Connection
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

// DialRabbit connects to uri and declares queue.
func DialRabbit(uri, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: q.Name}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, msg OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         msg.Type,
			Timestamp:    msg.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

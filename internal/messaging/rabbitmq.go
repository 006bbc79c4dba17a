// Package messaging connects the chat core to the notification fan-out
// through RabbitMQ: persisted chat messages are published as
// message-created events and consumed into notification rows.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kcdaviscode/huddll/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	chatEventsExchange     = "chat.events"
	messageCreatedKey      = "message.created"
	notificationQueue      = "notifications.chat"
	connectRetryBaseDelay  = time.Second
	connectRetryMaxAttemps = 10
)

// MessageCreatedEvent is the broker payload emitted after a chat message
// is durably stored
type MessageCreatedEvent struct {
	MessageID string    `json:"message_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry dials the broker with exponential backoff until
// the context expires
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	delay := connectRetryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= connectRetryMaxAttemps; attempt++ {
		rmq, err := NewRabbitMQ(url)
		if err == nil {
			return rmq, nil
		}
		lastErr = err

		slog.Warn("rabbitmq connection failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("rabbitmq connect cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}

	return nil, fmt.Errorf("rabbitmq connect gave up: %w", lastErr)
}

// Setup declares the chat events exchange and the notification queue
func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		chatEventsExchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		return fmt.Errorf("failed to declare chat events exchange: %w", err)
	}

	if _, err := r.channel.QueueDeclare(
		notificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		return fmt.Errorf("failed to declare notification queue: %w", err)
	}

	if err := r.channel.QueueBind(
		notificationQueue,  // queue name
		messageCreatedKey,  // routing key
		chatEventsExchange, // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind notification queue: %w", err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// PublishMessageCreated emits the fan-out event for one persisted message
func (r *RabbitMQ) PublishMessageCreated(ctx context.Context, msg *domain.ChatMessage) error {
	event := &MessageCreatedEvent{
		MessageID: msg.ID,
		EventID:   msg.EventID,
		UserID:    msg.User.ID,
		Username:  msg.User.Username,
		FirstName: msg.User.FirstName,
		LastName:  msg.User.LastName,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message created event: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		chatEventsExchange,
		messageCreatedKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message created event: %w", err)
	}

	slog.Debug("published message created event",
		slog.String("message_id", msg.ID),
		slog.String("event_id", msg.EventID))
	return nil
}

// ConsumeMessageCreated registers a consumer on the notification queue
func (r *RabbitMQ) ConsumeMessageCreated() (<-chan amqp.Delivery, error) {
	msgs, err := r.channel.Consume(
		notificationQueue, // queue
		"",                // consumer
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("started consuming message created events",
		slog.String("queue", notificationQueue))
	return msgs, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

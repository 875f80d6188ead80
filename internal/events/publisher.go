// Package events publishes learner progress events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange learner events are published on.
const DefaultExchange = "pylearn.events"

// Routing keys.
const (
	RouteEventApplied       = "learner.event_applied"
	RouteAchievementUnlock  = "learner.achievement_unlocked"
	RouteLevelUp            = "learner.level_up"
	RouteLearnerRegistered  = "learner.registered"
	RouteReviewsDueReminder = "learner.reviews_due"
)

// Message is the JSON body of a published event.
type Message struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	LearnerID  string         `json:"learner_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewMessage builds a message with a fresh event ID.
func NewMessage(eventType, learnerID string, at time.Time, data map[string]any) Message {
	return Message{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		LearnerID:  learnerID,
		OccurredAt: at,
		Data:       data,
	}
}

// Publisher delivers messages to subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }

func (Nop) Close() error { return nil }

// RabbitPublisher publishes to a durable topic exchange, using the event
// type as routing key.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	log      *slog.Logger
}

// NewRabbitPublisher connects to uri and declares the exchange. An empty
// uri returns a disabled publisher that drops messages.
func NewRabbitPublisher(uri, exchange string, log *slog.Logger) (*RabbitPublisher, error) {
	if log == nil {
		log = slog.Default()
	}
	if uri == "" {
		log.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &RabbitPublisher{enabled: false, log: log}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		enabled:  true,
		log:      log,
	}, nil
}

// Enabled reports whether messages are actually sent.
func (p *RabbitPublisher) Enabled() bool { return p.enabled }

func (p *RabbitPublisher) Publish(ctx context.Context, msg Message) error {
	if !p.enabled {
		p.log.Debug("event publishing disabled, skipping", "type", msg.EventType)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,    // exchange
		msg.EventType, // routing key
		false,         // mandatory
		false,         // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.EventID,
			Timestamp:    msg.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.EventType, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// Recorder keeps published messages in memory. Used by tests and the
// CLI dry-run mode.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	// TopicUserEvents carries account lifecycle events for downstream
	// consumers (enrollment, analytics).
	TopicUserEvents = "lms.user.events"

	// TopicEmailDelivery carries messages for the out-of-band email sender.
	// The plaintext reset token travels only on this topic and is never
	// persisted.
	TopicEmailDelivery = "lms.notifications.email"
)

type EventType string

const (
	EventUserRegistered         EventType = "user.registered"
	EventPasswordResetRequested EventType = "user.password_reset_requested"
	EventPasswordChanged        EventType = "user.password_changed"
	EventAccountDeleted         EventType = "user.account_deleted"
)

// Envelope is the wire format for all published events.
type Envelope struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload"`
}

// Publisher publishes account events. Delivery of the reset email is the only
// operation whose failure is surfaced to the caller; everything else is
// fire-and-forget.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, userID, email string) error
	PublishPasswordResetRequested(ctx context.Context, email, name, plaintextToken string) error
	PublishPasswordChanged(ctx context.Context, userID string) error
	PublishAccountDeleted(ctx context.Context, userID string) error
	Close() error
}

// KafkaPublisher publishes events to Kafka via watermill.
type KafkaPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaPublisher{publisher: publisher, logger: logger}, nil
}

func (p *KafkaPublisher) publish(topic string, envelope Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", envelope.Type, err)
	}

	return nil
}

func (p *KafkaPublisher) PublishUserRegistered(ctx context.Context, userID, email string) error {
	return p.publish(TopicUserEvents, Envelope{
		Type:       EventUserRegistered,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID, "email": email},
	})
}

func (p *KafkaPublisher) PublishPasswordResetRequested(ctx context.Context, email, name, plaintextToken string) error {
	return p.publish(TopicEmailDelivery, Envelope{
		Type:       EventPasswordResetRequested,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]string{
			"email":       email,
			"name":        name,
			"reset_token": plaintextToken,
		},
	})
}

func (p *KafkaPublisher) PublishPasswordChanged(ctx context.Context, userID string) error {
	return p.publish(TopicUserEvents, Envelope{
		Type:       EventPasswordChanged,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID},
	})
}

func (p *KafkaPublisher) PublishAccountDeleted(ctx context.Context, userID string) error {
	return p.publish(TopicUserEvents, Envelope{
		Type:       EventAccountDeleted,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory. Used in tests and as the
// publisher when no brokers are configured (local development).
type MockEventPublisher struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []PublishedEvent
}

type PublishedEvent struct {
	Topic    string
	Envelope Envelope
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) record(topic string, envelope Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Envelope: envelope})
	p.logger.Info("event published", "topic", topic, "type", string(envelope.Type))
}

func (p *MockEventPublisher) PublishUserRegistered(ctx context.Context, userID, email string) error {
	p.record(TopicUserEvents, Envelope{
		Type:       EventUserRegistered,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID, "email": email},
	})
	return nil
}

func (p *MockEventPublisher) PublishPasswordResetRequested(ctx context.Context, email, name, plaintextToken string) error {
	p.record(TopicEmailDelivery, Envelope{
		Type:       EventPasswordResetRequested,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]string{
			"email":       email,
			"name":        name,
			"reset_token": plaintextToken,
		},
	})
	return nil
}

func (p *MockEventPublisher) PublishPasswordChanged(ctx context.Context, userID string) error {
	p.record(TopicUserEvents, Envelope{
		Type:       EventPasswordChanged,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID},
	})
	return nil
}

func (p *MockEventPublisher) PublishAccountDeleted(ctx context.Context, userID string) error {
	p.record(TopicUserEvents, Envelope{
		Type:       EventAccountDeleted,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]string{"user_id": userID},
	})
	return nil
}

// Published returns a copy of all recorded events.
func (p *MockEventPublisher) Published() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *MockEventPublisher) Close() error { return nil }

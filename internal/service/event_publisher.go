package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/pkg/kafka"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing reservation lifecycle events
type EventPublisher interface {
	// PublishReserved publishes a hold created event
	PublishReserved(ctx context.Context, hold *domain.PendingReservation) error

	// PublishConfirmed publishes a hold confirmed event
	PublishConfirmed(ctx context.Context, hold *domain.PendingReservation) error

	// PublishReleased publishes a hold released event
	PublishReleased(ctx context.Context, hold *domain.PendingReservation) error

	// PublishExpired publishes a hold expired event
	PublishExpired(ctx context.Context, hold *domain.PendingReservation) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "reservation-events"
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "fnl-website"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "fnl-website-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishReserved publishes a hold created event
func (p *KafkaEventPublisher) PublishReserved(ctx context.Context, hold *domain.PendingReservation) error {
	return p.publishEvent(ctx, domain.ReservationEventReserved, hold)
}

// PublishConfirmed publishes a hold confirmed event
func (p *KafkaEventPublisher) PublishConfirmed(ctx context.Context, hold *domain.PendingReservation) error {
	return p.publishEvent(ctx, domain.ReservationEventConfirmed, hold)
}

// PublishReleased publishes a hold released event
func (p *KafkaEventPublisher) PublishReleased(ctx context.Context, hold *domain.PendingReservation) error {
	return p.publishEvent(ctx, domain.ReservationEventReleased, hold)
}

// PublishExpired publishes a hold expired event
func (p *KafkaEventPublisher) PublishExpired(ctx context.Context, hold *domain.PendingReservation) error {
	return p.publishEvent(ctx, domain.ReservationEventExpired, hold)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// publishEvent publishes a reservation event to Kafka. Delivery is
// async; failures are logged but never fail the calling request.
func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType domain.ReservationEventType, hold *domain.PendingReservation) error {
	eventID := uuid.New().String()
	event := domain.NewReservationEvent(eventType, hold, eventID)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     eventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	msg := &kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.Key()),
		Value:   value,
		Headers: headers,
	}

	p.producer.ProduceAsync(ctx, msg, func(produceErr error) {
		logger.Get().Warn(fmt.Sprintf("Failed to publish %s event for token %s", eventType, hold.Token),
			zap.Error(produceErr))
	})
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishReserved is a no-op
func (p *NoOpEventPublisher) PublishReserved(ctx context.Context, hold *domain.PendingReservation) error {
	return nil
}

// PublishConfirmed is a no-op
func (p *NoOpEventPublisher) PublishConfirmed(ctx context.Context, hold *domain.PendingReservation) error {
	return nil
}

// PublishReleased is a no-op
func (p *NoOpEventPublisher) PublishReleased(ctx context.Context, hold *domain.PendingReservation) error {
	return nil
}

// PublishExpired is a no-op
func (p *NoOpEventPublisher) PublishExpired(ctx context.Context, hold *domain.PendingReservation) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/pkg/kafka"
)

// Staff assignment event types carried on the notification topic.
const (
	StaffEventAssigned   = "staff.assigned"
	StaffEventUnassigned = "staff.unassigned"
)

// StaffAssignmentEvent is the message body for the notification pipeline.
type StaffAssignmentEvent struct {
	EventID    string             `json:"event_id"`
	Type       string             `json:"type"`
	Staff      domain.StaffMember `json:"staff"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// NotificationPublisher publishes staff assignment changes for the messaging
// pipeline. Publishing is best-effort from the mutation's perspective: a
// failed publish never rolls the assignment back.
type NotificationPublisher interface {
	PublishStaffAssigned(ctx context.Context, eventID string, staff domain.StaffMember) error
	PublishStaffUnassigned(ctx context.Context, eventID string, staff domain.StaffMember) error
	Close() error
}

// KafkaNotificationPublisher implements NotificationPublisher using Kafka
type KafkaNotificationPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// NotificationPublisherConfig contains configuration for the publisher
type NotificationPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaNotificationPublisher creates a new Kafka notification publisher
func NewKafkaNotificationPublisher(ctx context.Context, cfg *NotificationPublisherConfig) (*KafkaNotificationPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "staff-assignment-events"
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "calendar-service"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      cfg.ClientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaNotificationPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

func (p *KafkaNotificationPublisher) PublishStaffAssigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	return p.publish(ctx, StaffEventAssigned, eventID, staff)
}

func (p *KafkaNotificationPublisher) PublishStaffUnassigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	return p.publish(ctx, StaffEventUnassigned, eventID, staff)
}

// Close closes the underlying producer
func (p *KafkaNotificationPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaNotificationPublisher) publish(ctx context.Context, eventType, eventID string, staff domain.StaffMember) error {
	body := StaffAssignmentEvent{
		EventID:    eventID,
		Type:       eventType,
		Staff:      staff,
		OccurredAt: time.Now().UTC(),
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		// keyed by event so all changes for one event land in order
		Key:   []byte(eventID),
		Value: value,
		Headers: map[string]string{
			"event_type":   eventType,
			"event_id":     uuid.New().String(),
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: time.Now(),
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// NoOpNotificationPublisher is used when the brokers are unreachable at boot
type NoOpNotificationPublisher struct{}

// NewNoOpNotificationPublisher creates a new no-op publisher
func NewNoOpNotificationPublisher() *NoOpNotificationPublisher {
	return &NoOpNotificationPublisher{}
}

func (p *NoOpNotificationPublisher) PublishStaffAssigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	return nil
}

func (p *NoOpNotificationPublisher) PublishStaffUnassigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	return nil
}

func (p *NoOpNotificationPublisher) Close() error {
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/infra/config"
)

const schemaVersion = "1.0"

const interactionEventType = "interaction"

// InteractionTopic resolves the change-stream topic for the given settings.
// The producer and the consumer group must agree on it.
func InteractionTopic(cfg config.KafkaSettings) string {
	if cfg.TopicPrefix == "" {
		return interactionEventType
	}
	return fmt.Sprintf("%s.%s", cfg.TopicPrefix, interactionEventType)
}

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

// PublishInteraction emits an interaction event onto the change stream.
func (p *EventPublisher) PublishInteraction(ctx context.Context, event domain.InteractionEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	envelope := eventEnvelope{
		EventID:   event.EventID,
		EventType: interactionEventType,
		UserID:    event.TargetUserID,
		Timestamp: event.OccurredAt.UTC(),
		Version:   schemaVersion,
		Payload:   event,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(interactionEventType),
		Key:   sarama.StringEncoder(event.TargetUserID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

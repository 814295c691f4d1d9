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
	"github.com/arklim/social-platform-feed/internal/core/port"
)

// NotificationConsumer materializes notification rows from interaction events
// and fans them out to the realtime hub.
type NotificationConsumer struct {
	profiles      port.ProfileRepository
	notifications port.NotificationRepository
	unread        port.UnreadStore
	sink          port.NotificationSink
	logger        *zap.Logger
	now           func() time.Time
}

// NewNotificationConsumer constructs a consumer that keeps notification feeds current.
func NewNotificationConsumer(
	profiles port.ProfileRepository,
	notifications port.NotificationRepository,
	unread port.UnreadStore,
	sink port.NotificationSink,
	logger *zap.Logger,
) *NotificationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationConsumer{
		profiles:      profiles,
		notifications: notifications,
		unread:        unread,
		sink:          sink,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the consumer clock for deterministic testing.
func (c *NotificationConsumer) WithClock(clock func() time.Time) *NotificationConsumer {
	if clock != nil {
		c.now = clock
	}
	return c
}

type interactionEnvelope struct {
	EventID string                  `json:"event_id"`
	Payload domain.InteractionEvent `json:"payload"`
}

// HandleMessage decodes a Kafka message prior to processing.
func (c *NotificationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope interactionEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode interaction event: %w", err)
	}

	return c.HandleEvent(ctx, envelope.Payload)
}

// HandleEvent persists the notification, flags the target unread, and pushes
// to the realtime hub. Self-interactions produce no notification.
func (c *NotificationConsumer) HandleEvent(ctx context.Context, event domain.InteractionEvent) error {
	if event.TargetUserID == "" || event.ActorID == "" {
		return fmt.Errorf("interaction event missing actor or target")
	}
	if event.ActorID == event.TargetUserID {
		return nil
	}

	actor, err := c.profiles.GetByID(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("resolve actor profile: %w", err)
	}

	createdAt := event.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = c.now()
	}

	notification := domain.NotificationEvent{
		ID:             uuid.NewString(),
		Type:           notificationType(event.Kind),
		TargetUserID:   event.TargetUserID,
		ActorID:        actor.ID,
		ActorUsername:  actor.Username,
		ActorAvatarURL: actor.AvatarURL,
		PostID:         event.PostID,
		CreatedAt:      createdAt,
	}

	if err := c.notifications.Insert(ctx, notification); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if c.unread != nil {
		if err := c.unread.SetUnread(ctx, event.TargetUserID); err != nil {
			c.logger.Warn("failed to set unread indicator",
				zap.String("user_id", event.TargetUserID),
				zap.Error(err),
			)
		}
	}

	if c.sink != nil {
		c.sink.Deliver(notification)
	}

	return nil
}

func notificationType(kind domain.ActionKind) domain.NotificationType {
	switch kind {
	case domain.ActionLike:
		return domain.NotificationLike
	case domain.ActionFollow:
		return domain.NotificationFollow
	default:
		return domain.NotificationType(kind)
	}
}

// ConsumerGroupHandler adapts the consumer to the sarama consumer-group API.
type ConsumerGroupHandler struct {
	consumer *NotificationConsumer
	logger   *zap.Logger
}

// NewConsumerGroupHandler constructs a sarama.ConsumerGroupHandler for the notification consumer.
func NewConsumerGroupHandler(consumer *NotificationConsumer, logger *zap.Logger) *ConsumerGroupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsumerGroupHandler{consumer: consumer, logger: logger}
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim processes messages until the claim channel closes, marking
// offsets even on handler failure so a poison message cannot wedge the group.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.consumer.HandleMessage(session.Context(), msg); err != nil {
			h.logger.Error("failed to process interaction event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

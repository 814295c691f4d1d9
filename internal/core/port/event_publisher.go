package port

import (
	"context"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// EventPublisher emits interaction events onto the change stream.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, event domain.InteractionEvent) error
}

// NotificationSink receives materialized notifications for realtime delivery.
// Implemented by the websocket hub; the Kafka consumer fans out through it.
type NotificationSink interface {
	Deliver(event domain.NotificationEvent)
}

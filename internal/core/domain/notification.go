package domain

import "time"

// NotificationType enumerates the interaction kinds delivered to users.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
	NotificationMention NotificationType = "mention"
)

// NotificationEvent is a single inbound item on a user's notification feed.
// Produced by the interaction change stream, consumed exactly once by the
// active realtime subscription.
type NotificationEvent struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	TargetUserID   string           `json:"user_id"`
	ActorID        string           `json:"actor_id"`
	ActorUsername  string           `json:"actor_username"`
	ActorAvatarURL string           `json:"actor_avatar_url"`
	PostID         string           `json:"post_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	Read           bool             `json:"read"`
}

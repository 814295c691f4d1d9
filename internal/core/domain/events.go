package domain

import "time"

// InteractionEvent represents the payload for feed.interaction.* messages.
// Published when a social action is set (not when it is unset) and consumed
// by the notification materializer.
type InteractionEvent struct {
	EventID      string         `json:"event_id"`
	Kind         ActionKind     `json:"kind"`
	ActorID      string         `json:"actor_id"`
	TargetUserID string         `json:"target_user_id"`
	PostID       string         `json:"post_id,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

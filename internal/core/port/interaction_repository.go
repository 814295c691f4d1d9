package port

import (
	"context"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// ToggleResult reports the outcome of an idempotent-intent toggle.
type ToggleResult struct {
	// Set is true when the action is now present (liked/bookmarked/followed).
	Set bool
	// TargetUserID identifies the user who owns the affected resource.
	TargetUserID string
}

// InteractionRepository persists the reversible social actions and their counters.
type InteractionRepository interface {
	ToggleLike(ctx context.Context, userID, postID string) (ToggleResult, error)
	ToggleBookmark(ctx context.Context, userID, postID string) (ToggleResult, error)
	ToggleFollow(ctx context.Context, followerID, followeeID string) (ToggleResult, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}

// PostRepository exposes the read surface needed by public profile pages.
// Post authoring and feed queries are owned elsewhere.
type PostRepository interface {
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Post, error)
}

// NotificationRepository persists materialized notification rows.
type NotificationRepository interface {
	Insert(ctx context.Context, event domain.NotificationEvent) error
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error)
	MarkAllRead(ctx context.Context, userID string) error
}

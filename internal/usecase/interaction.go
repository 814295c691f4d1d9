package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
)

var (
	// ErrPostNotFound indicates the toggled post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrSelfFollow indicates a user attempted to follow themselves.
	ErrSelfFollow = errors.New("cannot follow self")
)

// InteractionService executes the reversible social actions. Each action is an
// idempotent-intent toggle: the response status alone tells the client whether
// to keep or revert its optimistic state.
type InteractionService struct {
	interactions port.InteractionRepository
	publisher    port.EventPublisher
	logger       *zap.Logger
}

// NewInteractionService constructs an InteractionService instance.
func NewInteractionService(
	interactions port.InteractionRepository,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *InteractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionService{
		interactions: interactions,
		publisher:    publisher,
		logger:       logger,
	}
}

// ToggleLike flips the caller's like on a post.
func (s *InteractionService) ToggleLike(ctx context.Context, userID, postID string) (port.ToggleResult, error) {
	result, err := s.interactions.ToggleLike(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, ErrPostNotFound
		}
		return result, fmt.Errorf("toggle like: %w", err)
	}

	s.publishIfSet(ctx, domain.ActionLike, userID, result, postID)
	return result, nil
}

// ToggleBookmark flips the caller's private bookmark on a post.
func (s *InteractionService) ToggleBookmark(ctx context.Context, userID, postID string) (port.ToggleResult, error) {
	result, err := s.interactions.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, ErrPostNotFound
		}
		return result, fmt.Errorf("toggle bookmark: %w", err)
	}

	// Bookmarks are private; nothing is announced to the post author.
	return result, nil
}

// ToggleFollow flips the caller's follow edge toward another user.
func (s *InteractionService) ToggleFollow(ctx context.Context, followerID, followeeID string) (port.ToggleResult, error) {
	if followerID == followeeID {
		return port.ToggleResult{}, ErrSelfFollow
	}

	result, err := s.interactions.ToggleFollow(ctx, followerID, followeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, ErrProfileNotFound
		}
		return result, fmt.Errorf("toggle follow: %w", err)
	}

	s.publishIfSet(ctx, domain.ActionFollow, followerID, result, "")
	return result, nil
}

// publishIfSet emits a change-stream event when the action was set (not unset).
// Publish failures are logged, never surfaced: the toggle already committed and
// the client's optimistic state is authoritative.
func (s *InteractionService) publishIfSet(ctx context.Context, kind domain.ActionKind, actorID string, result port.ToggleResult, postID string) {
	if s.publisher == nil || !result.Set {
		return
	}
	if result.TargetUserID == "" || result.TargetUserID == actorID {
		return
	}

	event := domain.InteractionEvent{
		EventID:      uuid.NewString(),
		Kind:         kind,
		ActorID:      actorID,
		TargetUserID: result.TargetUserID,
		PostID:       postID,
		OccurredAt:   time.Now().UTC(),
	}

	if err := s.publisher.PublishInteraction(ctx, event); err != nil {
		s.logger.Warn("failed to publish interaction event",
			zap.String("kind", string(kind)),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
	}
}

package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
)

// NotificationService serves the pull side of the notification feed. The push
// side (realtime hub) is fed by the change-stream consumer; both paths are
// complementary, not mutually exclusive.
type NotificationService struct {
	notifications port.NotificationRepository
	unread        port.UnreadStore
	logger        *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(
	notifications port.NotificationRepository,
	unread port.UnreadStore,
	logger *zap.Logger,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: notifications,
		unread:        unread,
		logger:        logger,
	}
}

// List returns the user's newest notifications, marks them read, and clears
// the unread indicator. Viewing the list is what consumes the badge.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error) {
	events, err := s.notifications.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		s.logger.Warn("failed to mark notifications read",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if s.unread != nil {
		if err := s.unread.ClearUnread(ctx, userID); err != nil {
			s.logger.Warn("failed to clear unread indicator",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return events, nil
}

// HasUnread reports whether the persistent unread indicator is set.
func (s *NotificationService) HasUnread(ctx context.Context, userID string) (bool, error) {
	if s.unread == nil {
		return false, nil
	}

	flagged, err := s.unread.HasUnread(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check unread indicator: %w", err)
	}

	return flagged, nil
}

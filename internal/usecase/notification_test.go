package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

type stubNotificationRepo struct {
	events     []domain.NotificationEvent
	markedRead []string
}

func (r *stubNotificationRepo) Insert(_ context.Context, event domain.NotificationEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *stubNotificationRepo) ListForUser(_ context.Context, userID string, _ int) ([]domain.NotificationEvent, error) {
	var out []domain.NotificationEvent
	for _, e := range r.events {
		if e.TargetUserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.markedRead = append(r.markedRead, userID)
	return nil
}

type stubUnread struct {
	flagged map[string]bool
}

func (s *stubUnread) SetUnread(_ context.Context, userID string) error {
	if s.flagged == nil {
		s.flagged = map[string]bool{}
	}
	s.flagged[userID] = true
	return nil
}

func (s *stubUnread) ClearUnread(_ context.Context, userID string) error {
	delete(s.flagged, userID)
	return nil
}

func (s *stubUnread) HasUnread(_ context.Context, userID string) (bool, error) {
	return s.flagged[userID], nil
}

func TestListMarksReadAndClearsUnread(t *testing.T) {
	repo := &stubNotificationRepo{events: []domain.NotificationEvent{
		{ID: "n1", TargetUserID: "user-1", Type: domain.NotificationLike, CreatedAt: time.Now()},
		{ID: "n2", TargetUserID: "user-2", Type: domain.NotificationFollow, CreatedAt: time.Now()},
	}}
	unread := &stubUnread{flagged: map[string]bool{"user-1": true}}
	svc := NewNotificationService(repo, unread, zaptest.NewLogger(t))

	events, err := svc.List(context.Background(), "user-1", 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "n1", events[0].ID)

	assert.Equal(t, []string{"user-1"}, repo.markedRead)
	assert.False(t, unread.flagged["user-1"])
}

func TestHasUnread(t *testing.T) {
	unread := &stubUnread{flagged: map[string]bool{"user-1": true}}
	svc := NewNotificationService(&stubNotificationRepo{}, unread, zaptest.NewLogger(t))

	flagged, err := svc.HasUnread(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, flagged)

	flagged, err = svc.HasUnread(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, flagged)
}

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
)

type stubProfileRepo struct {
	profiles map[string]domain.Profile
}

func (r *stubProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := r.profiles[id]; ok {
		copy := p
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubProfileRepo) GetByUsername(context.Context, string) (*domain.Profile, error) {
	return nil, repository.ErrNotFound
}

func (r *stubProfileRepo) Update(context.Context, string, port.ProfileUpdate) (*domain.Profile, error) {
	return nil, repository.ErrNotFound
}

func (r *stubProfileRepo) SearchByUsername(context.Context, string, int) ([]domain.Profile, error) {
	return nil, nil
}

type stubNotificationRepo struct {
	inserted []domain.NotificationEvent
}

func (r *stubNotificationRepo) Insert(_ context.Context, event domain.NotificationEvent) error {
	r.inserted = append(r.inserted, event)
	return nil
}

func (r *stubNotificationRepo) ListForUser(context.Context, string, int) ([]domain.NotificationEvent, error) {
	return nil, nil
}

func (r *stubNotificationRepo) MarkAllRead(context.Context, string) error { return nil }

type stubUnreadStore struct {
	flagged map[string]bool
}

func (s *stubUnreadStore) SetUnread(_ context.Context, userID string) error {
	if s.flagged == nil {
		s.flagged = map[string]bool{}
	}
	s.flagged[userID] = true
	return nil
}

func (s *stubUnreadStore) ClearUnread(_ context.Context, userID string) error {
	delete(s.flagged, userID)
	return nil
}

func (s *stubUnreadStore) HasUnread(_ context.Context, userID string) (bool, error) {
	return s.flagged[userID], nil
}

type recordingSink struct {
	delivered []domain.NotificationEvent
}

func (s *recordingSink) Deliver(event domain.NotificationEvent) {
	s.delivered = append(s.delivered, event)
}

func TestNotificationConsumerHandleEvent(t *testing.T) {
	profiles := &stubProfileRepo{profiles: map[string]domain.Profile{
		"actor-1": {ID: "actor-1", Username: "alice", AvatarURL: "https://cdn/avatars/alice.png"},
	}}
	notifications := &stubNotificationRepo{}
	unread := &stubUnreadStore{}
	sink := &recordingSink{}

	consumer := NewNotificationConsumer(profiles, notifications, unread, sink, zaptest.NewLogger(t))
	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	consumer.WithClock(func() time.Time { return fixed })

	err := consumer.HandleEvent(context.Background(), domain.InteractionEvent{
		Kind:         domain.ActionLike,
		ActorID:      "actor-1",
		TargetUserID: "target-1",
		PostID:       "post-9",
	})
	require.NoError(t, err)

	require.Len(t, notifications.inserted, 1)
	got := notifications.inserted[0]
	assert.Equal(t, domain.NotificationLike, got.Type)
	assert.Equal(t, "target-1", got.TargetUserID)
	assert.Equal(t, "alice", got.ActorUsername)
	assert.Equal(t, "post-9", got.PostID)
	assert.Equal(t, fixed, got.CreatedAt)
	assert.False(t, got.Read)

	assert.True(t, unread.flagged["target-1"])
	require.Len(t, sink.delivered, 1)
	assert.Equal(t, got.ID, sink.delivered[0].ID)
}

func TestNotificationConsumerSkipsSelfInteraction(t *testing.T) {
	notifications := &stubNotificationRepo{}
	consumer := NewNotificationConsumer(&stubProfileRepo{}, notifications, nil, nil, zaptest.NewLogger(t))

	err := consumer.HandleEvent(context.Background(), domain.InteractionEvent{
		Kind:         domain.ActionFollow,
		ActorID:      "user-1",
		TargetUserID: "user-1",
	})
	require.NoError(t, err)
	assert.Empty(t, notifications.inserted)
}

func TestNotificationConsumerUnknownActor(t *testing.T) {
	consumer := NewNotificationConsumer(&stubProfileRepo{}, &stubNotificationRepo{}, nil, nil, zaptest.NewLogger(t))

	err := consumer.HandleEvent(context.Background(), domain.InteractionEvent{
		Kind:         domain.ActionLike,
		ActorID:      "ghost",
		TargetUserID: "target-1",
	})
	assert.Error(t, err)
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultUnreadPrefix = "feed:unread"

// Unread flags are refreshed on every new notification; the TTL only bounds
// abandoned accounts, the pull path clears flags explicitly.
const unreadTTL = 30 * 24 * time.Hour

// UnreadStore implements port.UnreadStore on Redis.
type UnreadStore struct {
	client *red.Client
	prefix string
}

// NewUnreadStore constructs the per-user unread indicator store.
func NewUnreadStore(client *red.Client, keyPrefix string) *UnreadStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultUnreadPrefix
	}

	return &UnreadStore{client: client, prefix: prefix}
}

// SetUnread flags the user as having unseen notifications.
func (s *UnreadStore) SetUnread(ctx context.Context, userID string) error {
	key := s.key(userID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}

	if err := s.client.Set(ctx, key, "1", unreadTTL).Err(); err != nil {
		return fmt.Errorf("redis set unread: %w", err)
	}

	return nil
}

// ClearUnread removes the flag; viewing the notifications list calls this.
func (s *UnreadStore) ClearUnread(ctx context.Context, userID string) error {
	key := s.key(userID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis clear unread: %w", err)
	}

	return nil
}

// HasUnread reports whether the user has unseen notifications.
func (s *UnreadStore) HasUnread(ctx context.Context, userID string) (bool, error) {
	key := s.key(userID)
	if key == "" {
		return false, fmt.Errorf("user id is required")
	}

	if err := s.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get unread: %w", err)
	}

	return true, nil
}

func (s *UnreadStore) key(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

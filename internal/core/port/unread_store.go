package port

import "context"

// UnreadStore tracks the persistent per-user unread indicator backing the
// notification badge. Complementary to the realtime channel: the flag
// survives disconnects and page loads.
type UnreadStore interface {
	SetUnread(ctx context.Context, userID string) error
	ClearUnread(ctx context.Context, userID string) error
	HasUnread(ctx context.Context, userID string) (bool, error)
}

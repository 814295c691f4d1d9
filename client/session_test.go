package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

type countingCloser struct {
	closed int
}

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestSessionKeepsSingleSubscription(t *testing.T) {
	session := NewSessionContext()
	session.SetIdentity(&domain.Profile{ID: "user-1", Username: "alice"})

	first := &countingCloser{}
	second := &countingCloser{}

	session.attachSubscription(first)
	assert.Zero(t, first.closed)

	session.attachSubscription(second)
	assert.Equal(t, 1, first.closed)
	assert.Zero(t, second.closed)
}

func TestSessionIdentityChangeClosesSubscription(t *testing.T) {
	session := NewSessionContext()
	session.SetIdentity(&domain.Profile{ID: "user-1", Username: "alice"})

	sub := &countingCloser{}
	session.attachSubscription(sub)

	// Refresh of the same user keeps the handle.
	session.SetIdentity(&domain.Profile{ID: "user-1", Username: "alice", Bio: "updated"})
	assert.Zero(t, sub.closed)

	session.SetIdentity(&domain.Profile{ID: "user-2", Username: "bob"})
	assert.Equal(t, 1, sub.closed)
}

func TestSessionClearDropsIdentityAndSubscription(t *testing.T) {
	session := NewSessionContext()
	session.SetIdentity(&domain.Profile{ID: "user-1", Username: "alice"})

	sub := &countingCloser{}
	session.attachSubscription(sub)

	session.Clear()

	assert.False(t, session.Authenticated())
	assert.Equal(t, 1, sub.closed)

	// Detach after clear is a no-op.
	session.detachSubscription(sub)
	assert.Equal(t, 1, sub.closed)
}

package client

import (
	"sync"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// closer is the teardown surface a session owns for its realtime subscription.
type closer interface {
	Close() error
}

// SessionContext holds the resolved identity and the realtime subscription for
// one client session. It replaces ambient globals: components that need the
// current user receive the context explicitly and observe its lifecycle.
type SessionContext struct {
	mu           sync.RWMutex
	identity     *domain.Profile
	subscription closer
}

// NewSessionContext returns an empty, unauthenticated session context.
func NewSessionContext() *SessionContext {
	return &SessionContext{}
}

// Identity returns the current user, or nil in guest mode.
func (s *SessionContext) Identity() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Authenticated reports whether an identity is resolved.
func (s *SessionContext) Authenticated() bool {
	return s.Identity() != nil
}

// SetIdentity replaces the current user wholesale. A profile-update response
// goes through here so the ambient identity never holds partial state.
func (s *SessionContext) SetIdentity(profile *domain.Profile) {
	s.mu.Lock()
	previous := s.identity
	s.identity = profile
	sub := s.subscription
	changed := previous != nil && (profile == nil || previous.ID != profile.ID)
	if changed {
		s.subscription = nil
	}
	s.mu.Unlock()

	// A subscription scoped to the old user must not outlive it.
	if changed && sub != nil {
		_ = sub.Close()
	}
}

// Clear drops the identity and tears down any live subscription. Called on
// logout and on credential invalidation.
func (s *SessionContext) Clear() {
	s.mu.Lock()
	s.identity = nil
	sub := s.subscription
	s.subscription = nil
	s.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// attachSubscription stores the live subscription handle, closing any previous
// one first. At most one subscription exists per session.
func (s *SessionContext) attachSubscription(sub closer) {
	s.mu.Lock()
	previous := s.subscription
	s.subscription = sub
	s.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
}

// detachSubscription removes the handle if it is still the active one.
func (s *SessionContext) detachSubscription(sub closer) {
	s.mu.Lock()
	if s.subscription == sub {
		s.subscription = nil
	}
	s.mu.Unlock()
}

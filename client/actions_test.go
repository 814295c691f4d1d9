package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

func authedSession() *SessionContext {
	s := NewSessionContext()
	s.SetIdentity(&domain.Profile{ID: "user-1", Username: "alice"})
	return s
}

func likeControl(postID string) domain.ActionDescriptor {
	return domain.ActionDescriptor{Kind: domain.ActionLike, ResourceID: postID}
}

func TestToggleAppliesBeforeRemoteCall(t *testing.T) {
	var observed []domain.ActionState
	controller := NewActionController(authedSession(), zaptest.NewLogger(t),
		WithChangeListener(func(_ domain.ActionDescriptor, state domain.ActionState) {
			observed = append(observed, state)
		}),
	)

	desc := likeControl("post-1")
	controller.Register(desc, domain.ActionState{Active: false, Count: 3})

	var stateAtRemote domain.ActionState
	err := controller.Toggle(context.Background(), desc, func(context.Context) error {
		stateAtRemote, _ = controller.State(desc)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, stateAtRemote.Active, "flip must precede network I/O")
	assert.Equal(t, 4, stateAtRemote.Count)
	require.Len(t, observed, 1)
	assert.Equal(t, domain.ActionState{Active: true, Count: 4}, observed[0])
}

func TestToggleFailureRestoresExactSnapshot(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	desc := domain.ActionDescriptor{Kind: domain.ActionFollow, ResourceID: "user-2"}
	initial := domain.ActionState{Active: false, Count: 42}
	controller.Register(desc, initial)

	err := controller.Toggle(context.Background(), desc, func(context.Context) error {
		return errors.New("server rejected")
	})

	require.Error(t, err)
	state, ok := controller.State(desc)
	require.True(t, ok)
	assert.Equal(t, initial, state)
}

func TestToggleRoundTripUnderTotalFailure(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	desc := likeControl("post-1")
	initial := domain.ActionState{Active: true, Count: 7}
	controller.Register(desc, initial)

	for i := 0; i < 9; i++ {
		err := controller.Toggle(context.Background(), desc, func(context.Context) error {
			return errors.New("network down")
		})
		require.Error(t, err)
	}

	state, _ := controller.State(desc)
	assert.Equal(t, initial, state, "all-failing sequence must land on the initial state")
}

func TestPairedTogglesReturnToInitialState(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	desc := likeControl("post-1")
	initial := domain.ActionState{Active: false, Count: 5}
	controller.Register(desc, initial)

	ok := func(context.Context) error { return nil }
	for i := 0; i < 6; i++ {
		require.NoError(t, controller.Toggle(context.Background(), desc, ok))
	}

	state, _ := controller.State(desc)
	assert.Equal(t, initial, state)

	// An odd-length remainder leaves the inverse.
	require.NoError(t, controller.Toggle(context.Background(), desc, ok))
	state, _ = controller.State(desc)
	assert.Equal(t, domain.ActionState{Active: true, Count: 6}, state)
}

func TestGuestToggleShortCircuits(t *testing.T) {
	prompted := false
	var calls int
	controller := NewActionController(NewSessionContext(), zaptest.NewLogger(t),
		WithAuthPrompt(func() { prompted = true }),
	)

	desc := likeControl("post-1")
	initial := domain.ActionState{Active: false, Count: 2}
	controller.Register(desc, initial)

	err := controller.Toggle(context.Background(), desc, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.True(t, prompted)
	assert.Zero(t, calls, "guest toggle must issue no network call")
	state, _ := controller.State(desc)
	assert.Equal(t, initial, state, "guest toggle must not change state")
}

func TestReentrantToggleRejectedWhileInFlight(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	desc := likeControl("post-1")
	controller.Register(desc, domain.ActionState{})

	release := make(chan struct{})
	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- controller.Toggle(context.Background(), desc, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := controller.Toggle(context.Background(), desc, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrActionInFlight)

	close(release)
	require.NoError(t, <-firstDone)

	// Settled controls accept toggles again.
	require.NoError(t, controller.Toggle(context.Background(), desc, func(context.Context) error { return nil }))
}

func TestToggleUnknownControl(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	err := controller.Toggle(context.Background(), likeControl("never-registered"), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestToggleCountClampsAtZero(t *testing.T) {
	controller := NewActionController(authedSession(), zaptest.NewLogger(t))

	desc := likeControl("post-1")
	controller.Register(desc, domain.ActionState{Active: true, Count: 0})

	require.NoError(t, controller.Toggle(context.Background(), desc, func(context.Context) error { return nil }))

	state, _ := controller.State(desc)
	assert.False(t, state.Active)
	assert.Equal(t, 0, state.Count)
}

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

var (
	// ErrAuthRequired indicates a guest attempted a social action.
	ErrAuthRequired = errors.New("client: authentication required")
	// ErrActionInFlight indicates the control already has a pending toggle.
	ErrActionInFlight = errors.New("client: action already in flight")
	// ErrUnknownAction indicates the control was never registered.
	ErrUnknownAction = errors.New("client: unknown action")
)

// RemoteCall performs the server confirmation for a toggle.
type RemoteCall func(ctx context.Context) error

// ChangeListener observes committed state transitions for a control. Fired
// synchronously before the remote call and again on revert.
type ChangeListener func(desc domain.ActionDescriptor, state domain.ActionState)

// ActionController is the engine for reversible toggle actions. Controls are
// registered with their server-rendered snapshot; Toggle applies the local
// transition first, confirms remotely, and restores the exact pre-toggle
// snapshot on failure.
type ActionController struct {
	mu       sync.Mutex
	session  *SessionContext
	states   map[domain.ActionDescriptor]domain.ActionState
	inflight map[domain.ActionDescriptor]bool

	onChange       ChangeListener
	onAuthRequired func()
	logger         *zap.Logger
}

// ControllerOption configures the controller.
type ControllerOption func(*ActionController)

// WithChangeListener observes every state transition.
func WithChangeListener(fn ChangeListener) ControllerOption {
	return func(c *ActionController) { c.onChange = fn }
}

// WithAuthPrompt is invoked when a guest attempts an action.
func WithAuthPrompt(fn func()) ControllerOption {
	return func(c *ActionController) { c.onAuthRequired = fn }
}

// NewActionController constructs a controller bound to the session context.
func NewActionController(session *SessionContext, logger *zap.Logger, opts ...ControllerOption) *ActionController {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ActionController{
		session:  session,
		states:   make(map[domain.ActionDescriptor]domain.ActionState),
		inflight: make(map[domain.ActionDescriptor]bool),
		logger:   logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Register seeds a control with its server-rendered snapshot.
func (c *ActionController) Register(desc domain.ActionDescriptor, initial domain.ActionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[desc] = initial
}

// State returns the current state of a control.
func (c *ActionController) State(desc domain.ActionDescriptor) (domain.ActionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[desc]
	return state, ok
}

// Toggle flips the control optimistically and confirms with the remote call.
// The flip and the change notification happen before any network I/O; on
// failure the pre-toggle snapshot is restored exactly, tolerating whatever
// the transition did. Re-entrant toggles on a busy control are rejected.
func (c *ActionController) Toggle(ctx context.Context, desc domain.ActionDescriptor, remote RemoteCall) error {
	if c.session == nil || !c.session.Authenticated() {
		if c.onAuthRequired != nil {
			c.onAuthRequired()
		}
		return ErrAuthRequired
	}

	c.mu.Lock()
	snapshot, ok := c.states[desc]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownAction
	}
	if c.inflight[desc] {
		c.mu.Unlock()
		return ErrActionInFlight
	}

	next := domain.Toggled(snapshot)
	c.states[desc] = next
	c.inflight[desc] = true
	listener := c.onChange
	c.mu.Unlock()

	if listener != nil {
		listener(desc, next)
	}

	err := remote(ctx)

	c.mu.Lock()
	delete(c.inflight, desc)
	if err != nil {
		c.states[desc] = snapshot
	}
	c.mu.Unlock()

	if err != nil {
		// Reverted silently: the action is low-stakes and retryable.
		c.logger.Debug("toggle reverted",
			zap.String("kind", string(desc.Kind)),
			zap.String("resource_id", desc.ResourceID),
			zap.Error(err),
		)
		if listener != nil {
			listener(desc, snapshot)
		}
		return fmt.Errorf("confirm %s: %w", desc.Kind, err)
	}

	return nil
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// NotificationHooks receive inbound realtime events. All hooks are optional
// and are invoked from the subscription's read goroutine.
type NotificationHooks struct {
	// OnEvent renders the transient toast for a fresh notification.
	OnEvent func(event domain.NotificationEvent)
	// OnUnread flags the persistent unread indicator.
	OnUnread func()
	// OnListRefresh is fired only while the notifications view is active.
	OnListRefresh func()
	// ListActive reports whether the notifications view is currently shown.
	ListActive func() bool
}

// NotificationChannel manages the single realtime subscription for the
// session. Opening a new subscription tears down the previous one.
type NotificationChannel struct {
	client *Client
	dialer *websocket.Dialer
	hooks  NotificationHooks
	logger *zap.Logger
}

// NewNotificationChannel constructs a channel bound to the client's session.
func NewNotificationChannel(c *Client, hooks NotificationHooks, logger *zap.Logger) *NotificationChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationChannel{
		client: c,
		dialer: websocket.DefaultDialer,
		hooks:  hooks,
		logger: logger,
	}
}

// Subscription is a live realtime handle owning its own teardown. The session
// context stores it so "close existing before opening new" is an enforced
// invariant rather than a convention.
type Subscription struct {
	userID    string
	conn      *websocket.Conn
	session   *SessionContext
	closeOnce sync.Once
	done      chan struct{}
}

// Close tears the subscription down. Idempotent. It does not wait for the
// read loop to exit: hooks run on the read goroutine, so a hook that triggers
// teardown (logout on an inbound event) must not block on its own return.
// Use Done to observe read-loop termination.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		if s.session != nil {
			s.session.detachSubscription(s)
		}
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
		_ = s.conn.Close()
	})
	return nil
}

// Done is closed when the read loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe opens the realtime stream for the current identity. Any existing
// subscription is closed first; guests cannot subscribe.
func (ch *NotificationChannel) Subscribe(ctx context.Context) (*Subscription, error) {
	identity := ch.client.Session().Identity()
	if identity == nil {
		return nil, ErrAuthRequired
	}

	wsURL := *ch.client.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/notifications/stream"

	header := http.Header{}
	if token, _ := ch.client.Tokens().AccessToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := ch.dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	sub := &Subscription{
		userID:  identity.ID,
		conn:    conn,
		session: ch.client.Session(),
		done:    make(chan struct{}),
	}

	ch.client.Session().attachSubscription(sub)

	go ch.readLoop(sub)

	ch.logger.Debug("notification subscription opened", zap.String("user_id", identity.ID))
	return sub, nil
}

func (ch *NotificationChannel) readLoop(sub *Subscription) {
	defer close(sub.done)
	defer sub.session.detachSubscription(sub)

	sub.conn.SetPingHandler(func(appData string) error {
		return sub.conn.WriteControl(websocket.PongMessage, []byte(appData), closeDeadline())
	})

	for {
		var event domain.NotificationEvent
		if err := sub.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ch.logger.Warn("notification stream closed unexpectedly",
					zap.String("user_id", sub.userID),
					zap.Error(err),
				)
			}
			return
		}

		ch.dispatch(event)
	}
}

// dispatch fans one inbound event out: toast always, unread indicator always,
// list refresh only while the notifications view is showing.
func (ch *NotificationChannel) dispatch(event domain.NotificationEvent) {
	if ch.hooks.OnEvent != nil {
		ch.hooks.OnEvent(event)
	}
	if ch.hooks.OnUnread != nil {
		ch.hooks.OnUnread()
	}
	if ch.hooks.OnListRefresh != nil && ch.hooks.ListActive != nil && ch.hooks.ListActive() {
		ch.hooks.OnListRefresh()
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}

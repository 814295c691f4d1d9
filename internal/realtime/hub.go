package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// Subscriber is one live realtime registration. Events arrive on C; Close is
// idempotent and owned by the subscriber, so teardown is an explicit handle
// operation rather than a convention.
type Subscriber struct {
	UserID string

	C chan domain.NotificationEvent

	hub       *Hub
	closeOnce sync.Once
}

// Close tears the subscription down and unregisters it from the hub.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		if s.hub != nil {
			s.hub.remove(s)
			return
		}
		close(s.C)
	})
}

// Hub fans notification events out to per-user realtime subscribers. At most
// one subscriber exists per user: a new subscription replaces (and closes) the
// previous one, preventing duplicate delivery and leaked handles.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
	bufferSize  int
	logger      *zap.Logger
	delivered   prometheus.Counter
}

// Option configures optional Hub behaviour.
type Option func(*Hub)

// WithDeliveredCounter wires a metric incremented on every pushed event.
func WithDeliveredCounter(counter prometheus.Counter) Option {
	return func(h *Hub) {
		h.delivered = counter
	}
}

// WithBufferSize sets the per-subscriber send buffer.
func WithBufferSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		subscribers: make(map[string]*Subscriber),
		bufferSize:  16,
		logger:      logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

// Subscribe registers a subscriber for the user, closing any existing one first.
func (h *Hub) Subscribe(userID string) *Subscriber {
	sub := &Subscriber{
		UserID: userID,
		C:      make(chan domain.NotificationEvent, h.bufferSize),
		hub:    h,
	}

	h.mu.Lock()
	previous := h.subscribers[userID]
	h.subscribers[userID] = sub
	h.mu.Unlock()

	if previous != nil {
		previous.Close()
		h.logger.Debug("replaced realtime subscription", zap.String("user_id", userID))
	}

	return sub
}

// remove unregisters and closes the subscriber. The close happens under the
// hub lock so Deliver never writes to a closed channel.
func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subscribers[sub.UserID]; ok && current == sub {
		delete(h.subscribers, sub.UserID)
	}
	close(sub.C)
}

// Deliver pushes an event to the target user's subscriber, if any. A full send
// buffer drops the event: the pull path will surface it on the next list fetch.
func (h *Hub) Deliver(event domain.NotificationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[event.TargetUserID]
	if !ok {
		return
	}

	select {
	case sub.C <- event:
		if h.delivered != nil {
			h.delivered.Inc()
		}
	default:
		h.logger.Warn("realtime send buffer full, dropping event",
			zap.String("user_id", event.TargetUserID),
			zap.String("notification_id", event.ID),
		)
	}
}

// ActiveSubscribers reports the number of live registrations.
func (h *Hub) ActiveSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

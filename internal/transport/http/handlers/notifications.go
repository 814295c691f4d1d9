package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/infra/config"
	"github.com/arklim/social-platform-feed/internal/realtime"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

// NotificationHandler serves the notification feed and its realtime stream.
type NotificationHandler struct {
	notifications *usecase.NotificationService
	hub           *realtime.Hub
	settings      config.RealtimeSettings
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(
	notifications *usecase.NotificationService,
	hub *realtime.Hub,
	settings config.RealtimeSettings,
	allowedOrigins []string,
	logger *zap.Logger,
) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = true
	}

	return &NotificationHandler{
		notifications: notifications,
		hub:           hub,
		settings:      settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return origins[origin]
			},
		},
		logger: logger,
	}
}

// List returns the caller's newest notifications. Fetching the list marks the
// rows read and clears the unread indicator.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	limit := defaultPageSize
	events, err := h.notifications.List(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load notifications"))
		return
	}

	c.JSON(http.StatusOK, NotificationListResponse{Notifications: events, Total: len(events)})
}

// Unread reports whether the caller has unseen notifications.
func (h *NotificationHandler) Unread(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	flagged, err := h.notifications.HasUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to check notifications"))
		return
	}

	c.JSON(http.StatusOK, UnreadResponse{Unread: flagged})
}

// Stream upgrades the request to a websocket and forwards the caller's
// notifications as they are materialized. Opening a new stream for the same
// user supersedes the previous one.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(userID)
	h.logger.Debug("notification stream opened", zap.String("user_id", userID))

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
}

// readLoop drains client frames so close handshakes and pongs are processed.
func (h *NotificationHandler) readLoop(conn *websocket.Conn, sub *realtime.Subscriber) {
	defer sub.Close()

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop forwards hub events to the peer and keeps the connection alive
// with periodic pings. Returning closes the connection.
func (h *NotificationHandler) writeLoop(conn *websocket.Conn, sub *realtime.Subscriber) {
	pingInterval := h.settings.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	writeTimeout := h.settings.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "superseded"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("notification stream write failed",
					zap.String("user_id", sub.UserID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse wraps a single profile payload.
type ProfileResponse struct {
	Profile domain.Profile `json:"profile"`
}

// ProfileUpdateRequest carries the updatable profile fields. Absent fields are
// left untouched; present-but-empty strings clear the column.
type ProfileUpdateRequest struct {
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ProfileSearchResponse wraps username search results.
type ProfileSearchResponse struct {
	Profiles []domain.Profile `json:"profiles"`
	Total    int              `json:"total"`
}

// PostListResponse wraps the posts shown on a profile page.
type PostListResponse struct {
	Posts []domain.Post `json:"posts"`
	Total int           `json:"total"`
}

// ToggleResponse reports the state an interaction toggle settled on. Active
// reflects the stored state after the flip, which is what the caller reconciles
// its optimistic state against.
type ToggleResponse struct {
	Active bool `json:"active"`
}

// NotificationListResponse wraps the user's notification feed.
type NotificationListResponse struct {
	Notifications []domain.NotificationEvent `json:"notifications"`
	Total         int                        `json:"total"`
}

// UnreadResponse reports whether the unread indicator is set.
type UnreadResponse struct {
	Unread bool `json:"unread"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

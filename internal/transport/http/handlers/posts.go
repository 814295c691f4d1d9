package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

// PostHandler exposes the per-post interaction toggles.
type PostHandler struct {
	interactions *usecase.InteractionService
}

// NewPostHandler constructs a post handler.
func NewPostHandler(interactions *usecase.InteractionService) *PostHandler {
	return &PostHandler{interactions: interactions}
}

// ToggleLike flips the caller's like on a post.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	h.toggle(c, h.interactions.ToggleLike, "failed to toggle like")
}

// ToggleBookmark flips the caller's private bookmark on a post.
func (h *PostHandler) ToggleBookmark(c *gin.Context) {
	h.toggle(c, h.interactions.ToggleBookmark, "failed to toggle bookmark")
}

func (h *PostHandler) toggle(
	c *gin.Context,
	flip func(ctx context.Context, userID, postID string) (port.ToggleResult, error),
	fallbackMessage string,
) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "post id is required"))
		return
	}

	result, err := flip(c.Request.Context(), userID, postID)
	if err != nil {
		cases := []ErrorCase{{Err: usecase.ErrPostNotFound, Status: http.StatusNotFound, Message: "post not found"}}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, fallbackMessage)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{Active: result.Set})
}

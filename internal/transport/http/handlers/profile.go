package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProfileHandler exposes profile reads, updates, search, and the follow toggle.
type ProfileHandler struct {
	profiles     *usecase.ProfileService
	interactions *usecase.InteractionService
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(profiles *usecase.ProfileService, interactions *usecase.InteractionService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, interactions: interactions}
}

// GetCurrent returns the authenticated caller's profile.
func (h *ProfileHandler) GetCurrent(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	profile, err := h.profiles.CurrentProfile(c.Request.Context(), userID)
	if err != nil {
		cases := []ErrorCase{{Err: usecase.ErrProfileNotFound, Status: http.StatusNotFound, Message: "profile not found"}}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: *profile})
}

// GetByUsername returns a public profile. Authenticated viewers additionally
// get their follow relationship toward the profile.
func (h *ProfileHandler) GetByUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username is required"))
		return
	}

	viewerID, _ := middleware.GetAuthenticatedUserID(c)

	profile, err := h.profiles.PublicProfile(c.Request.Context(), username, viewerID)
	if err != nil {
		cases := []ErrorCase{{Err: usecase.ErrProfileNotFound, Status: http.StatusNotFound, Message: "profile not found"}}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: *profile})
}

// ListPosts returns the newest posts on a public profile page.
func (h *ProfileHandler) ListPosts(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username is required"))
		return
	}

	posts, err := h.profiles.PostsFor(c.Request.Context(), username, pageSize(c))
	if err != nil {
		cases := []ErrorCase{{Err: usecase.ErrProfileNotFound, Status: http.StatusNotFound, Message: "profile not found"}}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// Update applies partial profile changes and returns the stored profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request body"))
		return
	}

	update := port.ProfileUpdate{
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidProfileUpdate, Status: http.StatusBadRequest, Message: "no fields to update"},
			{Err: usecase.ErrProfileNotFound, Status: http.StatusNotFound, Message: "profile not found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: *profile})
}

// ToggleFollow flips the caller's follow edge toward the target user.
func (h *ProfileHandler) ToggleFollow(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	targetID := strings.TrimSpace(c.Param("id"))
	if targetID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "target user id is required"))
		return
	}

	result, err := h.interactions.ToggleFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrSelfFollow, Status: http.StatusBadRequest, Message: "cannot follow yourself"},
			{Err: usecase.ErrProfileNotFound, Status: http.StatusNotFound, Message: "profile not found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to toggle follow")
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{Active: result.Set})
}

// Search matches profiles by username or full name substring.
func (h *ProfileHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, ProfileSearchResponse{Profiles: nil, Total: 0})
		return
	}

	profiles, err := h.profiles.Search(c.Request.Context(), query, pageSize(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to search profiles"))
		return
	}

	c.JSON(http.StatusOK, ProfileSearchResponse{Profiles: profiles, Total: len(profiles)})
}

func pageSize(c *gin.Context) int {
	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit
}

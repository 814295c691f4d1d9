package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

// AuthHandler exposes the session introspection and teardown endpoints.
type AuthHandler struct {
	profiles *usecase.ProfileService
	cookies  middleware.CookieSettings
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(profiles *usecase.ProfileService, cookies middleware.CookieSettings) *AuthHandler {
	return &AuthHandler{profiles: profiles, cookies: cookies}
}

// Me returns the caller's own profile. The response is the ambient identity a
// client caches for the lifetime of its session.
func (h *AuthHandler) Me(c *gin.Context) {
	if h.profiles == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "profile service unavailable"))
		return
	}

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

// Logout expires the session cookies. The endpoint always succeeds: a client
// discarding its credentials must end up signed out even if it never had any.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, false)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)

	c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

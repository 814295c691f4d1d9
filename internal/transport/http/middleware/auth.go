package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/infra/security"
)

const (
	// AccessTokenCookie carries the identity-provider access token.
	AccessTokenCookie = "sb-access-token"
	// RefreshTokenCookie carries the identity-provider refresh token.
	RefreshTokenCookie = "sb-refresh-token"
	// RefreshTokenHeader forwards the refresh token to downstream handlers.
	RefreshTokenHeader = "X-Refresh-Token"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// CookieSettings controls how session cookies are written and cleared.
type CookieSettings struct {
	Domain string
	Secure bool
}

// SessionGuard resolves session credentials from the Authorization header or
// session cookies and enforces authentication on protected routes.
type SessionGuard struct {
	verifier port.TokenVerifier
	cookies  CookieSettings
	logger   *zap.Logger
}

// NewSessionGuard constructs the guard. A nil verifier is a wiring bug; the
// guard still returns a usable value whose middleware fails closed with 500.
func NewSessionGuard(verifier port.TokenVerifier, cookies CookieSettings, logger *zap.Logger) *SessionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGuard{verifier: verifier, cookies: cookies, logger: logger}
}

// extractCredentials resolves the access/refresh pair, preferring the explicit
// Authorization header over cookies.
func extractCredentials(c *gin.Context) domain.Session {
	session := domain.Session{Source: domain.TokenSourceNone}

	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				session.AccessToken = token
				session.Source = domain.TokenSourceHeader
			}
		}
	}

	if session.AccessToken == "" {
		if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
			session.AccessToken = cookie
			session.Source = domain.TokenSourceCookie
		}
	}

	if refresh := c.GetHeader(RefreshTokenHeader); refresh != "" {
		session.RefreshToken = refresh
	} else if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		session.RefreshToken = cookie
	}

	return session
}

// clearSessionCookies expires both session cookies on the response. Only
// called when the credentials themselves are bad; transient verification
// failures leave the cookies alone so a retry can still succeed.
func (g *SessionGuard) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", g.cookies.Domain, g.cookies.Secure, false)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", g.cookies.Domain, g.cookies.Secure, true)
}

// RequireSession rejects requests without a valid access token. Expired or
// invalid credentials clear the session cookies so the browser does not keep
// replaying them; unexpected verifier failures return 500 with cookies intact.
func (g *SessionGuard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := extractCredentials(c)
		if !session.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		if g.verifier == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "server middleware error"))
			return
		}

		claims, err := g.verifier.VerifyAccessToken(c.Request.Context(), session.AccessToken)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				g.clearSessionCookies(c)
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session expired"))
			case errors.Is(err, security.ErrTokenInvalid):
				g.clearSessionCookies(c)
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session"))
			default:
				g.logger.Error("token verification failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionKey, session)
		c.Set(IdentityKey, domain.Identity{UserID: claims.UserID, Email: claims.Email})

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = claims.UserID
		}

		c.Next()
	}
}

// NormalizeCredentials lifts cookie-borne tokens into the Authorization and
// X-Refresh-Token headers and resolves the viewer identity when the token
// verifies. Guests and holders of bad tokens pass through as anonymous.
func (g *SessionGuard) NormalizeCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := extractCredentials(c)

		if session.AccessToken != "" && c.GetHeader("Authorization") == "" {
			c.Request.Header.Set("Authorization", "Bearer "+session.AccessToken)
		}
		if session.RefreshToken != "" && c.GetHeader(RefreshTokenHeader) == "" {
			c.Request.Header.Set(RefreshTokenHeader, session.RefreshToken)
		}

		if g.verifier != nil && session.Authenticated() {
			if claims, err := g.verifier.VerifyAccessToken(c.Request.Context(), session.AccessToken); err == nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(SessionKey, session)
				c.Set(IdentityKey, domain.Identity{UserID: claims.UserID, Email: claims.Email})
				if reqCtx := GetRequestContext(c); reqCtx != nil {
					reqCtx.UserID = claims.UserID
				}
			}
		}

		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID from context (helper for handlers)
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	if id, ok := userID.(string); ok {
		return id, true
	}

	return "", false
}

// GetIdentity retrieves the resolved caller identity from context.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	val, exists := c.Get(IdentityKey)
	if !exists {
		return domain.Identity{}, false
	}
	if identity, ok := val.(domain.Identity); ok {
		return identity, true
	}
	return domain.Identity{}, false
}

// GetSession retrieves the resolved session credentials from context.
func GetSession(c *gin.Context) (domain.Session, bool) {
	val, exists := c.Get(SessionKey)
	if !exists {
		return domain.Session{Source: domain.TokenSourceNone}, false
	}
	if session, ok := val.(domain.Session); ok {
		return session, true
	}
	return domain.Session{Source: domain.TokenSourceNone}, false
}

package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/infra/config"
	"github.com/arklim/social-platform-feed/internal/realtime"
	"github.com/arklim/social-platform-feed/internal/transport/http/handlers"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Profiles      *usecase.ProfileService
	Interactions  *usecase.InteractionService
	Notifications *usecase.NotificationService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Guard       *middleware.SessionGuard
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Hub         *realtime.Hub
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware. Routes split
// into two trees: a strict tree behind RequireSession and a public tree behind
// NormalizeCredentials, where a session enriches the response but is optional.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookieSettings := middleware.CookieSettings{
		Domain: deps.Config.Auth.CookieDomain,
		Secure: deps.Config.Auth.CookieSecure,
	}

	if deps.Guard == nil {
		// A guard with no verifier rejects protected routes with 500.
		deps.Guard = middleware.NewSessionGuard(nil, cookieSettings, deps.Logger)
	}

	requireSession := deps.Guard.RequireSession()
	normalize := deps.Guard.NormalizeCredentials()
	toggleLimit := buildToggleLimiter(deps)

	authHandler := handlers.NewAuthHandler(deps.Services.Profiles, cookieSettings)
	profileHandler := handlers.NewProfileHandler(deps.Services.Profiles, deps.Services.Interactions)
	postHandler := handlers.NewPostHandler(deps.Services.Interactions)
	notificationHandler := handlers.NewNotificationHandler(
		deps.Services.Notifications,
		deps.Hub,
		deps.Config.Realtime,
		deps.Config.CORS.AllowedOrigins,
		deps.Logger,
	)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.GET("/me", requireSession, authHandler.Me)
		// Logout must succeed even with dead credentials.
		authGroup.POST("/logout", normalize, authHandler.Logout)

		profileGroup := api.Group("/profile")
		profileGroup.GET("", requireSession, profileHandler.GetCurrent)
		profileGroup.PUT("", requireSession, profileHandler.Update)
		followHandlers := append([]gin.HandlerFunc{requireSession}, toggleLimit...)
		profileGroup.POST("/follow/:id", append(followHandlers, profileHandler.ToggleFollow)...)
		profileGroup.GET("/:username", normalize, profileHandler.GetByUsername)
		profileGroup.GET("/:username/posts", normalize, profileHandler.ListPosts)

		postGroup := api.Group("/posts")
		postGroup.Use(requireSession)
		if len(toggleLimit) > 0 {
			postGroup.Use(toggleLimit...)
		}
		postGroup.POST("/:id/like", postHandler.ToggleLike)
		postGroup.POST("/:id/bookmark", postHandler.ToggleBookmark)

		notificationGroup := api.Group("/notifications")
		notificationGroup.Use(requireSession)
		notificationGroup.GET("", notificationHandler.List)
		notificationGroup.GET("/unread", notificationHandler.Unread)
		notificationGroup.GET("/stream", notificationHandler.Stream)

		api.GET("/search", normalize, profileHandler.Search)
	}

	return r
}

func buildToggleLimiter(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.ToggleMaxAttempts
	if limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       "interaction_toggle",
		Limit:      limit,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.UserIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

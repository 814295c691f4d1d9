package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
	"github.com/arklim/social-platform-feed/internal/transport/http/handlers"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

type stubProfileRepo struct {
	profiles map[string]*domain.Profile
	updated  *port.ProfileUpdate
}

func (s *stubProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProfileRepo) GetByUsername(_ context.Context, username string) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if strings.EqualFold(p.Username, username) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubProfileRepo) Update(_ context.Context, id string, update port.ProfileUpdate) (*domain.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.updated = &update
	clone := *p
	if update.FullName != nil {
		clone.FullName = *update.FullName
	}
	if update.Bio != nil {
		clone.Bio = *update.Bio
	}
	if update.AvatarURL != nil {
		clone.AvatarURL = *update.AvatarURL
	}
	return &clone, nil
}

func (s *stubProfileRepo) SearchByUsername(_ context.Context, query string, _ int) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range s.profiles {
		if strings.Contains(strings.ToLower(p.Username), strings.ToLower(query)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

type stubInteractionRepo struct {
	result    port.ToggleResult
	err       error
	following bool
}

func (s *stubInteractionRepo) ToggleLike(_ context.Context, _, _ string) (port.ToggleResult, error) {
	return s.result, s.err
}

func (s *stubInteractionRepo) ToggleBookmark(_ context.Context, _, _ string) (port.ToggleResult, error) {
	return s.result, s.err
}

func (s *stubInteractionRepo) ToggleFollow(_ context.Context, _, _ string) (port.ToggleResult, error) {
	return s.result, s.err
}

func (s *stubInteractionRepo) IsFollowing(_ context.Context, _, _ string) (bool, error) {
	return s.following, nil
}

type stubPostRepo struct {
	posts []domain.Post
}

func (s *stubPostRepo) ListByAuthor(_ context.Context, _ string, _ int) ([]domain.Post, error) {
	return s.posts, nil
}

type stubVerifier struct {
	userID string
}

func (s *stubVerifier) VerifyAccessToken(_ context.Context, token string) (*port.TokenClaims, error) {
	if token == "" {
		return nil, assert.AnError
	}
	return &port.TokenClaims{UserID: s.userID}, nil
}

type testEnv struct {
	router       *gin.Engine
	profiles     *stubProfileRepo
	interactions *stubInteractionRepo
}

func newTestEnv(t *testing.T, userID string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	profilesRepo := &stubProfileRepo{profiles: map[string]*domain.Profile{
		"user-1": {ID: "user-1", Username: "alice", FullName: "Alice"},
		"user-2": {ID: "user-2", Username: "bob", FullName: "Bob"},
	}}
	interactionsRepo := &stubInteractionRepo{}
	postsRepo := &stubPostRepo{posts: []domain.Post{{ID: "post-1", AuthorID: "user-1"}}}

	profileService := usecase.NewProfileService(profilesRepo, postsRepo, interactionsRepo, logger)
	interactionService := usecase.NewInteractionService(interactionsRepo, nil, logger)

	guard := middleware.NewSessionGuard(&stubVerifier{userID: userID}, middleware.CookieSettings{}, logger)

	profileHandler := handlers.NewProfileHandler(profileService, interactionService)
	postHandler := handlers.NewPostHandler(interactionService)

	router := gin.New()
	router.Use(middleware.EnrichContext())
	router.GET("/api/profile", guard.RequireSession(), profileHandler.GetCurrent)
	router.PUT("/api/profile", guard.RequireSession(), profileHandler.Update)
	router.POST("/api/profile/follow/:id", guard.RequireSession(), profileHandler.ToggleFollow)
	router.GET("/api/profile/:username", guard.NormalizeCredentials(), profileHandler.GetByUsername)
	router.GET("/api/profile/:username/posts", guard.NormalizeCredentials(), profileHandler.ListPosts)
	router.GET("/api/search", guard.NormalizeCredentials(), profileHandler.Search)
	router.POST("/api/posts/:id/like", guard.RequireSession(), postHandler.ToggleLike)
	router.POST("/api/posts/:id/bookmark", guard.RequireSession(), postHandler.ToggleBookmark)

	return &testEnv{router: router, profiles: profilesRepo, interactions: interactionsRepo}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestGetCurrentProfile(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/profile", "valid-token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestGetPublicProfileAsGuest(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/profile/bob", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)
	assert.NotContains(t, rec.Body.String(), "is_following")
}

func TestGetPublicProfileDecoratesFollowState(t *testing.T) {
	env := newTestEnv(t, "user-1")
	env.interactions.following = true

	rec := env.do(http.MethodGet, "/api/profile/bob", "valid-token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_following":true`)
}

func TestGetPublicProfileNotFound(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/profile/nobody", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodPut, "/api/profile", "valid-token", `{"bio":"hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.profiles.updated)
	require.NotNil(t, env.profiles.updated.Bio)
	assert.Equal(t, "hello", *env.profiles.updated.Bio)
	assert.Nil(t, env.profiles.updated.FullName)
}

func TestUpdateProfileEmptyBody(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodPut, "/api/profile", "valid-token", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no fields to update")
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t, "user-1")
	env.interactions.result = port.ToggleResult{Set: true, TargetUserID: "user-2"}

	rec := env.do(http.MethodPost, "/api/posts/post-1/like", "valid-token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":true`)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	env := newTestEnv(t, "user-1")
	env.interactions.err = repository.ErrNotFound

	rec := env.do(http.MethodPost, "/api/posts/missing/like", "valid-token", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleBookmarkUnset(t *testing.T) {
	env := newTestEnv(t, "user-1")
	env.interactions.result = port.ToggleResult{Set: false}

	rec := env.do(http.MethodPost, "/api/posts/post-1/bookmark", "valid-token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":false`)
}

func TestToggleFollowSelf(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodPost, "/api/profile/follow/user-1", "valid-token", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot follow yourself")
}

func TestSearchProfiles(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/search?q=ali", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestSearchEmptyQuery(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/search", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}

func TestListProfilePosts(t *testing.T) {
	env := newTestEnv(t, "user-1")

	rec := env.do(http.MethodGet, "/api/profile/alice/posts", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"post-1"`)
}

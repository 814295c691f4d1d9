package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type memoryRateStore struct {
	attempts map[string][]time.Time
	failWith error
}

func newMemoryRateStore() *memoryRateStore {
	return &memoryRateStore{attempts: make(map[string][]time.Time)}
}

func (m *memoryRateStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if m.failWith != nil {
		return m.failWith
	}
	cutoff := reference.Add(-window)
	var kept []time.Time
	for _, at := range m.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	m.attempts[identifier] = kept
	return nil
}

func (m *memoryRateStore) CountAttempts(_ context.Context, identifier string, _ time.Duration, _ time.Time) (int, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.attempts[identifier]), nil
}

func (m *memoryRateStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.attempts[identifier] = append(m.attempts[identifier], at)
	return nil
}

func newRateLimitRouter(t *testing.T, limiter *RateLimiter, rule RateLimitRule) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.POST("/toggle", limiter.RateLimit(rule), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := newMemoryRateStore()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	rule := RateLimitRule{
		Name:       "toggle",
		Limit:      2,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	}
	router := newRateLimitRouter(t, limiter, rule)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitWindowSlides(t *testing.T) {
	store := newMemoryRateStore()
	current := time.Now()
	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return current })

	rule := RateLimitRule{
		Name:       "toggle",
		Limit:      1,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	}
	router := newRateLimitRouter(t, limiter, rule)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	current = current.Add(2 * time.Minute)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	store := newMemoryRateStore()
	store.failWith = assert.AnError
	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	rule := RateLimitRule{
		Name:       "toggle",
		Limit:      1,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	}
	router := newRateLimitRouter(t, limiter, rule)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

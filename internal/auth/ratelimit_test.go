package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewLoginRateLimiter(3, time.Minute)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.allow("10.0.0.1", now)
		assert.True(t, allowed, "attempt %d", i+1)
	}

	allowed, retryAfter := limiter.allow("10.0.0.1", now)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestLoginRateLimiterWindowSlides(t *testing.T) {
	limiter := NewLoginRateLimiter(2, time.Minute)
	now := time.Now().UTC()

	limiter.allow("10.0.0.1", now)
	limiter.allow("10.0.0.1", now)

	allowed, _ := limiter.allow("10.0.0.1", now.Add(30*time.Second))
	assert.False(t, allowed)

	// The old hits fall out of the window.
	allowed, _ = limiter.allow("10.0.0.1", now.Add(61*time.Second))
	assert.True(t, allowed)
}

func TestLoginRateLimiterIsolatesClients(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute)
	now := time.Now().UTC()

	limiter.allow("10.0.0.1", now)
	blocked, _ := limiter.allow("10.0.0.1", now)
	assert.False(t, blocked)

	allowed, _ := limiter.allow("10.0.0.2", now)
	assert.True(t, allowed)
}

func TestLoginRateLimiterMiddlewareResponds429(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many login attempts"}`, second.Body.String())
}

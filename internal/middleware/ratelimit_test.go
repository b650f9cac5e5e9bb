package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/config"
)

func TestRateLimiterAllowConsumesBurst(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Burst: 3, RefillRate: 1})

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("actor-1"), "request %d should pass", i)
	}
	assert.False(t, limiter.Allow("actor-1"))
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Burst: 1, RefillRate: 1})
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow("actor-1"))
	require.False(t, limiter.Allow("actor-1"))

	now = now.Add(2 * time.Second)
	assert.True(t, limiter.Allow("actor-1"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Burst: 1, RefillRate: 1})

	require.True(t, limiter.Allow("actor-1"))
	require.False(t, limiter.Allow("actor-1"))
	assert.True(t, limiter.Allow("actor-2"))
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Burst: 1, RefillRate: 1, IdleEvict: time.Minute})
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow("actor-1"))
	require.Len(t, limiter.buckets, 1)

	now = now.Add(5 * time.Minute)
	require.True(t, limiter.Allow("actor-2"))
	// The sweep ran and dropped actor-1's idle bucket.
	_, exists := limiter.buckets["actor-1"]
	assert.False(t, exists)
}

func TestRateLimitMiddlewareRejectsWhenExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextActorKey, "actor-1")
		c.Next()
	})
	r.Use(RateLimit(config.RateLimitConfig{Enabled: true, Burst: 1, RefillRate: 0.001}, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{Enabled: false}, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestActorMiddlewareRequiresHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Actor())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ActorID(c))
	})

	missing := httptest.NewRecorder()
	r.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "teacher-1")
	ok := httptest.NewRecorder()
	r.ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "teacher-1", ok.Body.String())
}

package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/service"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/config"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/response"
)

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter throttles mutating requests per acting user with a token
// bucket per actor. Buckets idle longer than the eviction window are
// dropped so the map stays bounded.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket

	burst      float64
	refillRate float64
	idleEvict  time.Duration
	lastSweep  time.Time

	now func() time.Time
}

// NewRateLimiter constructs a limiter from config.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 10
	}
	refill := cfg.RefillRate
	if refill <= 0 {
		refill = 1
	}
	idle := cfg.IdleEvict
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		burst:      float64(burst),
		refillRate: refill,
		idleEvict:  idle,
		now:        time.Now,
	}
}

// Allow consumes one token for the key, refilling by elapsed time first.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleEvict {
		l.sweep(now)
		l.lastSweep = now
	}

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: l.burst}
		l.buckets[key] = bucket
	} else {
		elapsed := now.Sub(bucket.lastSeen).Seconds()
		bucket.tokens += elapsed * l.refillRate
		if bucket.tokens > l.burst {
			bucket.tokens = l.burst
		}
	}
	bucket.lastSeen = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) > l.idleEvict {
			delete(l.buckets, key)
		}
	}
}

// RateLimit rejects requests from actors that exhausted their bucket.
// Disabled config makes it a no-op.
func RateLimit(cfg config.RateLimitConfig, metricsSvc *service.MetricsService) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(cfg)
	return func(c *gin.Context) {
		key := ActorID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			if metricsSvc != nil {
				metricsSvc.RecordRateLimited()
			}
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

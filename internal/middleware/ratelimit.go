package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requestsPerSecond"`
	Burst             int           `json:"burst"`
	IdleTTL           time.Duration `json:"idleTTL"`
}

// LimiterStore decides whether a request identified by key may proceed.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps one token bucket per key in process memory. Buckets idle
// for longer than IdleTTL are dropped.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

func NewMemoryStore(cfg RateLimitConfig) *MemoryStore {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &MemoryStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		idleTTL: ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, b := range s.buckets {
		if now.Sub(b.lastSeen) > s.idleTTL {
			delete(s.buckets, k)
		}
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1), nil
}

// rateLimitKey uses the wallet set by the auth middleware and the client IP
// otherwise. Unverified request headers never pick the bucket.
func rateLimitKey(c *gin.Context) string {
	if u, ok := auth.WalletUser(c); ok {
		return "wallet:" + u.Key()
	}
	return "ip:" + c.ClientIP()
}

// RateLimit answers 429 once a key runs out of tokens. Store errors let the
// request through.
func RateLimit(store LimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()
		key := rateLimitKey(c)

		allowed, err := store.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/merchantdash/internal/pkg"
)

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second. Zero disables
	// limiting.
	Rate float64
	// Burst is the bucket size. Defaults to max(1, Rate).
	Burst int
	// IdleTTL evicts limiters unused for this long. Defaults to 10 minutes.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out one token bucket per client IP.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.Rate))
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &limiterSet{
		limit:   rate.Limit(cfg.Rate),
		burst:   burst,
		ttl:     ttl,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for k, cl := range s.clients {
			if now.Sub(cl.lastSeen) >= s.ttl {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit rejects clients that exceed cfg.Rate requests per second with 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Rate <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	set := newLimiterSet(cfg)
	return rateLimit(set)
}

func rateLimit(set *limiterSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		if set.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		if pkg.IsHTMX(c) {
			pkg.SetToast(c, "Too many requests, slow down", pkg.ToastError)
			c.Header("HX-Reswap", "none")
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Response{
			Code:    http.StatusTooManyRequests,
			Message: "too many requests",
		})
	}
}

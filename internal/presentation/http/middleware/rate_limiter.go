package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"golang.org/x/time/rate"
)

// RateLimiterConfig describes a token bucket of Requests per Window.
type RateLimiterConfig struct {
	Requests int
	Window   time.Duration
	// Sweep is how often idle buckets are dropped; zero disables sweeping.
	Sweep time.Duration
	Idle  time.Duration
}

// LimitsFromConfig converts RATE_LIMIT_REQUESTS / RATE_LIMIT_DURATION
// (seconds) into limiter settings, using 100 per minute when unset.
func LimitsFromConfig(cfg config.RateLimitConfig) RateLimiterConfig {
	out := RateLimiterConfig{
		Requests: 100,
		Window:   time.Minute,
		Sweep:    5 * time.Minute,
		Idle:     10 * time.Minute,
	}
	if cfg.Requests > 0 && cfg.Duration > 0 {
		out.Requests = cfg.Requests
		out.Window = time.Duration(cfg.Duration) * time.Second
	}
	return out
}

// RateLimiter keeps one bucket per caller: the user id once authenticated,
// otherwise the client IP (storefront, login, status stream).
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		def := LimitsFromConfig(config.RateLimitConfig{})
		cfg.Requests, cfg.Window = def.Requests, def.Window
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		idle:    cfg.Idle,
		done:    make(chan struct{}),
	}
	if cfg.Sweep > 0 {
		go rl.sweep(cfg.Sweep)
	}
	return rl
}

func (rl *RateLimiter) take(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.every, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = time.Now()
	allowed := b.lim.Allow()
	return allowed, int(b.lim.Tokens())
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.seen) > rl.idle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the sweeper.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// ActiveClients reports how many callers currently hold a bucket.
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func callerKey(c *gin.Context) string {
	if id, ok := c.Get(ContextUserID); ok {
		if uid, ok := id.(uuid.UUID); ok && uid != uuid.Nil {
			return "user:" + uid.String()
		}
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(rl.burst)
	return func(c *gin.Context) {
		allowed, remaining := rl.take(callerKey(c))
		c.Header("X-RateLimit-Limit", limit)
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			response.Error(c, apperror.NewAppError(http.StatusTooManyRequests, apperror.KindRateLimited, "Too many requests, slow down"))
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

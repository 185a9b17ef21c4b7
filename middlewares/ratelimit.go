package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/craghq/topo/internal"
)

// Rate limiting defaults: 10 req/s with a burst of 20 per client.
const (
	DefaultRateLimit = 10
	DefaultRateBurst = 20
)

// clientLimiterTTL is how long an idle client's bucket is kept before the
// sweep removes it.
const clientLimiterTTL = 3 * time.Minute

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	Limit   rate.Limit                    // Tokens added per second
	Burst   int                           // Bucket capacity
	KeyFunc func(internal.Context) string // Client identity, defaults to remote IP
}

// RateLimitOption configures RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithRateLimit sets tokens per second and burst size.
func WithRateLimit(limit rate.Limit, burst int) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.Limit = limit
		cfg.Burst = burst
	}
}

// WithRateLimitKeyFunc sets a custom client identity function, e.g. keyed
// by authenticated user instead of remote address.
func WithRateLimitKeyFunc(fn func(internal.Context) string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.KeyFunc = fn
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that applies a per-client token bucket.
// Exhausted clients receive 429 with a Retry-After hint. Buckets for idle
// clients are swept lazily on new-client registration.
func RateLimit(opts ...RateLimitOption) internal.Middleware {
	cfg := &RateLimitConfig{
		Limit: DefaultRateLimit,
		Burst: DefaultRateBurst,
		KeyFunc: func(c internal.Context) string {
			host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
			if err != nil {
				return c.Request().RemoteAddr
			}
			return host
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
	)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			key := cfg.KeyFunc(c)

			mu.Lock()
			cl, ok := clients[key]
			if !ok {
				for k, v := range clients {
					if time.Since(v.lastSeen) > clientLimiterTTL {
						delete(clients, k)
					}
				}
				cl = &clientLimiter{limiter: rate.NewLimiter(cfg.Limit, cfg.Burst)}
				clients[key] = cl
			}
			cl.lastSeen = time.Now()
			allowed := cl.limiter.Allow()
			mu.Unlock()

			if !allowed {
				return internal.NewHTTPError(http.StatusTooManyRequests, "too many requests",
					internal.WithHeader("Retry-After", "1"))
			}

			return next(c)
		}
	}
}

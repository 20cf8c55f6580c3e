package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/pkg/config"
)

// clientIdleTTL is how long an idle client's limiter is kept.
const clientIdleTTL = 5 * time.Minute

// ClientKeyFunc identifies the client a request is counted against.
type ClientKeyFunc func(r *http.Request) string

// RemoteIP keys clients by the host part of RemoteAddr.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimiter)

// WithClientKey changes how per-client limits identify clients.
func WithClientKey(fn ClientKeyFunc) RateLimitOption {
	return func(l *rateLimiter) {
		if fn != nil {
			l.key = fn
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RateLimitOption {
	return func(l *rateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// RateLimit returns middleware that answers 429 once the token bucket is
// empty. With cfg.PerClient every client gets its own bucket.
func RateLimit(cfg config.RateLimitConfig, opts ...RateLimitOption) internal.Middleware {
	l := &rateLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		key:     RemoteIP,
		now:     time.Now,
		clients: make(map[string]*client),
	}
	if cfg.RPS <= 0 {
		l.limit = rate.Inf
	}
	for _, opt := range opts {
		opt(l)
	}
	if !cfg.PerClient {
		l.global = rate.NewLimiter(l.limit, l.burst)
	}

	return func(r *http.Request, next internal.Next) (*internal.Response, error) {
		lim := l.limiter(r)
		if res := lim.ReserveN(l.now(), 1); !res.OK() || res.DelayFrom(l.now()) > 0 {
			delay := time.Duration(math.MaxInt64)
			if res.OK() {
				delay = res.DelayFrom(l.now())
				res.CancelAt(l.now())
			}
			return tooManyRequests(delay), nil
		}
		return next(r)
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	global    *rate.Limiter
	key       ClientKeyFunc
	now       func() time.Time
	clients   map[string]*client
	lastSweep time.Time
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
}

func (l *rateLimiter) limiter(r *http.Request) *rate.Limiter {
	if l.global != nil {
		return l.global
	}

	now := l.now()
	key := l.key(r)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > clientIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func tooManyRequests(retryAfter time.Duration) *internal.Response {
	resp := internal.Text(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
	if retryAfter > 0 && retryAfter < time.Hour {
		secs := int(math.Ceil(retryAfter.Seconds()))
		resp.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	}
	return resp
}

package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Profiles used by the router. Each can be overridden through
// RATELIMIT_{PROFILE}_REQUESTS, RATELIMIT_{PROFILE}_WINDOW_SEC and
// RATELIMIT_{PROFILE}_BURST.
var (
	// ProtectedLimit applies per subject (falling back to IP) on routes
	// behind the token gate.
	ProtectedLimit = RateLimitConfig{RequestsPerWindow: 120, Window: time.Minute, Burst: 60}

	// UnauthenticatedLimit applies per IP before the gate runs, so clients
	// hammering with bad credentials are cut off before any HMAC work.
	UnauthenticatedLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 100}

	// PublicLimit for health and docs endpoints.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	ProtectedLimit = ParseRateLimitFromEnv("PROTECTED", ProtectedLimit)
	UnauthenticatedLimit = ParseRateLimitFromEnv("UNAUTHENTICATED", UnauthenticatedLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_{REQUESTS,WINDOW_SEC,BURST}
// on top of defaultConfig. Unparseable or non-positive values are ignored.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		config.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		config.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_BURST"); ok {
		config.Burst = n
	}

	return config
}

func positiveEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor returns the bucket key for a request. An empty key bypasses
// limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor keys by the authenticated subject id, if any.
func UserIDKeyExtractor(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}

// FirstKeyExtractor returns the first non-empty key of extractors.
func FirstKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				return key
			}
		}
		return ""
	}
}

// limiterSet keeps one token bucket per key.
type limiterSet struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	if limiter, ok := ls.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := ls.limiters.LoadOrStore(key, rate.NewLimiter(ls.rate, ls.burst))
	ls.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops buckets that are full again, i.e. keys that have gone
// quiet. Runs at most every five minutes.
func (ls *limiterSet) maybeCleanup() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if time.Since(ls.lastCleanup) < 5*time.Minute {
		return
	}
	ls.lastCleanup = time.Now()

	ls.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(ls.burst) {
			ls.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware creates a rate limiting middleware with the given configuration.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	ls := &limiterSet{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := ls.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			reservation := limiter.Reserve()
			retryAfter := max(int(reservation.Delay().Seconds()), 1)
			reservation.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			log.Warn("rate limit exceeded", "key", key, "endpoint", r.URL.Path, "retry_after", retryAfter)

			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits by client IP.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitBySubject limits by authenticated subject, falling back to IP.
// It must run after the authn middleware.
func RateLimitBySubject(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, FirstKeyExtractor(UserIDKeyExtractor, IPKeyExtractor))
}

package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/northpeak/logistics-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter throttles requests per client IP. Whitelisted IPs and
// paths bypass the limiter entirely.
type RateLimiter struct {
	cfg       *config.RateLimitConfig
	logger    *zap.Logger
	limit     func(http.Handler) http.Handler
	allowIP   map[string]bool
	allowPath map[string]bool
}

// NewRateLimiter builds the limiter from configuration. The window is
// fixed at one minute; the budget comes from RequestsPerMinute.
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:       cfg,
		logger:    logger,
		allowIP:   make(map[string]bool, len(cfg.WhitelistIPs)),
		allowPath: make(map[string]bool, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.allowIP[ip] = true
	}
	for _, path := range cfg.WhitelistPaths {
		rl.allowPath[path] = true
	}

	rl.limit = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rl.exceeded),
	)

	logger.Info("rate limiter configured",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
	)
	return rl
}

// LimitByIP is the middleware entry point.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.pathExempt(r.URL.Path) || rl.allowIP[clientIP(r)] {
			next.ServeHTTP(w, r)
			return
		}
		rl.limit(next).ServeHTTP(w, r)
	})
}

// pathExempt matches exact whitelist entries plus "/prefix/*" patterns.
func (rl *RateLimiter) pathExempt(path string) bool {
	if rl.allowPath[path] {
		return true
	}
	for entry := range rl.allowPath {
		if strings.HasSuffix(entry, "/*") &&
			strings.HasPrefix(path, strings.TrimSuffix(entry, "/*")) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) exceeded(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("client_ip", clientIP(r)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limit exceeded","details":"Too many requests. Please try again later."}`))
}

// clientIP resolves the originating address, trusting forwarding
// headers set by the ingress.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

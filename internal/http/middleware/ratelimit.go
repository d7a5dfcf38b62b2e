package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/marketpaper/quote-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter holds rate limiting middleware and configuration
type RateLimiter struct {
	cfg            *config.RateLimitConfig
	logger         *zap.Logger
	ipLimiter      func(http.Handler) http.Handler
	whitelistIPs   map[string]bool
	whitelistPaths map[string]bool
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:            cfg,
		logger:         logger,
		whitelistIPs:   make(map[string]bool),
		whitelistPaths: make(map[string]bool),
	}

	// Build whitelist maps for O(1) lookup
	for _, ip := range cfg.WhitelistIPs {
		rl.whitelistIPs[ip] = true
	}
	for _, path := range cfg.WhitelistPaths {
		rl.whitelistPaths[path] = true
	}

	rl.ipLimiter = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rl.rateLimitExceededHandler),
	)

	logger.Info("Rate limiter initialized",
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
	)

	return rl
}

// LimitByIP returns IP-based rate limiting middleware
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isPathWhitelisted(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if rl.isIPWhitelisted(rl.getClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}

		rl.ipLimiter(next).ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request
func (rl *RateLimiter) getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) isIPWhitelisted(ip string) bool {
	return rl.whitelistIPs[ip]
}

func (rl *RateLimiter) isPathWhitelisted(path string) bool {
	if rl.whitelistPaths[path] {
		return true
	}

	// Prefix match for paths ending with /*
	for wp := range rl.whitelistPaths {
		if strings.HasSuffix(wp, "/*") {
			prefix := strings.TrimSuffix(wp, "/*")
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

func (rl *RateLimiter) rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("client_ip", rl.getClientIP(r)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"ok":false,"error":{"type":"bad_request","title":"Too Many Requests","status":429,"detail":"Too many requests. Please try again later."}}`))
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/casterhq/authgate/ratelimit"
)

// defaultExemptPrefixes bypass all limiting unconditionally: probes and
// static assets must never burn a client's quota.
var defaultExemptPrefixes = []string{"/health", "/static/", "/favicon.ico"}

// RateLimitOption adjusts the rate-limit middleware.
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	exemptPrefixes []string
	logger         *slog.Logger
}

// WithExemptPrefixes replaces the default exemption list (health checks and
// static assets).
func WithExemptPrefixes(prefixes ...string) RateLimitOption {
	return func(o *rateLimitOptions) { o.exemptPrefixes = prefixes }
}

// WithLogger sets the logger used when the counter store is unreachable.
func WithLogger(logger *slog.Logger) RateLimitOption {
	return func(o *rateLimitOptions) { o.logger = logger }
}

// RateLimit wraps a handler with fixed-window admission for the given route
// class, keyed by the client's source address so it applies to
// unauthenticated traffic too. Within-quota responses carry the standard
// X-RateLimit-* headers; rejections add Retry-After and a fixed body.
//
// A counter-store outage fails open: blocking all traffic because the
// limiter's backend is down would turn a degradation into an outage.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.Class, opts ...RateLimitOption) func(http.Handler) http.Handler {
	options := rateLimitOptions{
		exemptPrefixes: defaultExemptPrefixes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range options.exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			res, err := limiter.Allow(r.Context(), class, ClientIP(r))
			if err != nil {
				options.logger.Error("rate limit check failed",
					slog.String("class", string(class)),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				writeRateLimited(w, res)
				return
			}

			setRateLimitHeaders(w, res)
			next.ServeHTTP(w, r)
		})
	}
}

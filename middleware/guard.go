package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	authgate "github.com/casterhq/authgate"
)

func nowUnix() int64 { return time.Now().Unix() }

// Authenticate wraps a handler with the engine's authenticate step. On
// success the resolved identity and the client's source address are attached
// to the request context; on failure the response is rendered from the error
// taxonomy and the handler never runs.
func Authenticate(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, authgate.ErrMissingAuthHeader)
				return
			}

			ctx := authgate.WithClientIP(r.Context(), ClientIP(r))

			id, err := engine.Authenticate(ctx, r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(authgate.WithIdentity(ctx, id)))
		})
	}
}

// IdentityFromRequest returns the identity attached by [Authenticate].
func IdentityFromRequest(r *http.Request) (*authgate.Identity, bool) {
	return authgate.IdentityFromContext(r.Context())
}

// ClientIP extracts the request's source address. The first X-Forwarded-For
// hop wins when present (load-balancer deployments), then X-Real-IP, then
// the transport peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

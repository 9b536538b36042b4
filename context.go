package authgate

import "context"

type identityContextKey struct{}
type clientIPContextKey struct{}

// WithIdentity attaches a resolved identity to ctx. The middleware package
// calls this after a successful Authenticate; handlers and role gates read
// it back with [IdentityFromContext].
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity attached by [WithIdentity].
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}

// WithClientIP attaches the caller's source address to ctx for rate-limit
// keying and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the source address attached by [WithClientIP].
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

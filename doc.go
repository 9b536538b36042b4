// Package authgate is the authentication and authorization core for a
// multi-tenant web backend: issuance and verification of signed session
// tokens, a linear role hierarchy, refresh-token rotation, and the error
// taxonomy that route handlers translate into HTTP responses.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Token encode/decode and role evaluation are pure
// computations; only account lookups, refresh rotation, and password-reset
// storage perform I/O, always through context-aware calls with no lock held
// across them.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the [AccountStore] integration interface, and value types ([Identity],
// [TokenPair], [Account]). Signing lives in the token subpackage, role
// ranking in role, hashing in password, and request throttling in ratelimit;
// the middleware subpackage adapts HTTP semantics onto all of them.
//
// # What this package must NOT do
//
//   - Own account persistence. Callers implement [AccountStore]; the engine
//     only reads accounts and overwrites the stored refresh token, password
//     hash, and last-login timestamp.
//   - Keep server-side access-token state. Access tokens are stateless;
//     the stored refresh-token value is the only durable credential state.
//   - Read ambient environment state. Secrets and TTLs arrive as explicit
//     configuration so every component is testable with arbitrary values.
package authgate

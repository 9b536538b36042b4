// Package middleware exposes HTTP middleware adapters for authentication,
// role gating, and rate limiting built on top of the authgate engine.
//
// # Guards
//
//   - [Authenticate] — strict Bearer parse + token verification + account
//     liveness, identity injected into the request context.
//   - [Require] / [RequireExact] — role gates, hierarchy or exact-set.
//   - [RateLimit] — per-client fixed-window admission by route class.
//
// Guards compose in that order: role gates read the identity Authenticate
// attached, and return unauthorized when it is absent.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine and limiter calls. It
// does NOT implement authentication or throttling logic itself — every
// decision is delegated, and responses are rendered from the engine's error
// taxonomy via [authgate.HTTPStatus].
//
// # What this package must NOT do
//
//   - Parse or create tokens directly.
//   - Leak internal error detail to clients. Internal failures render a
//     generic 500 body; rate-limit rejections expose only limit, remaining,
//     and reset.
package middleware

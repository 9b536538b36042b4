// Package ratelimit caps request volume per client key and route class using
// fixed-window counters over a pluggable atomic store.
//
// # Window semantics
//
// Counters are fixed-window: the first increment of a (class, clientKey)
// window sets the TTL, subsequent increments ride the same expiry. Increments
// must be atomic per key; the Redis store uses INCR with a conditional
// EXPIRE, the in-process store a mutex-guarded map. No cross-window memory is
// retained.
//
// # Store selection
//
// Store choice is an explicit deployment decision, never an implicit
// fallback. [NewRedisStore] is required for horizontally scaled deployments;
// [NewMemoryStore] is correct only when exactly one process serves traffic,
// because each process counts independently.
//
// # What this package must NOT do
//
//   - Inspect HTTP requests (the middleware package adapts those).
//   - Treat a rejected request as an error. Rejection is a normal outcome
//     reported in [Result].
package ratelimit

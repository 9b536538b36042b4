// Package token encodes and decodes signed session claims as compact HS256
// JWTs. A [Codec] is keyed with exactly one secret, so access and refresh
// tokens are produced by two independent Codec instances and a token signed
// for one mode can never verify in the other.
//
// # Validation
//
// Encode rejects structurally invalid input (empty subject, malformed email,
// unrecognized role) before signing. Decode verifies the signature and the
// embedded expiry, then re-checks expiry against the wall clock and requires
// every claim field to be present with a recognized role. Signature-library
// expiry validation and the explicit wall-clock check are deliberately
// redundant.
//
// # What this package must NOT do
//
//   - Perform I/O. Encode and Decode are pure apart from clock reads.
//   - Consult an account store. Liveness is the caller's concern.
//   - Default an unrecognized role. Decoding is fail-closed.
package token

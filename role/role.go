// Package role defines the fixed, linearly ordered privilege levels used by
// authgate and the ranking rules that drive hierarchy-based authorization.
//
// The hierarchy is a total order: USER < EDITOR < ADMIN < SUPER_ADMIN. A role
// at a given rank implicitly satisfies any requirement at an equal or lower
// rank. The set is closed; unrecognized role strings are rejected rather than
// silently downgraded, so a tampered or stale token can never authenticate
// with a default role.
//
// # What this package must NOT do
//
//   - Grow into a general permissions/policy engine. The order is fixed.
//   - Perform I/O or read configuration. Ranking is a pure computation.
package role

import (
	"errors"
	"fmt"
)

// Role is one of the closed set of privilege levels.
type Role string

const (
	// User is the basic authenticated user role, the lowest rank.
	User Role = "USER"
	// Editor is the content-editing role.
	Editor Role = "EDITOR"
	// Admin is the administrative role.
	Admin Role = "ADMIN"
	// SuperAdmin is the full-system role, the highest rank.
	SuperAdmin Role = "SUPER_ADMIN"
)

// Minimal is the role embedded in refresh tokens regardless of the account's
// actual role, so a refresh token can never authorize a privileged operation
// directly.
const Minimal = User

// ErrUnknown is returned when a string does not name a recognized role.
var ErrUnknown = errors.New("unknown role")

var ranks = map[Role]int{
	User:       0,
	Editor:     1,
	Admin:      2,
	SuperAdmin: 3,
}

// All returns the role set in ascending rank order.
func All() []Role {
	return []Role{User, Editor, Admin, SuperAdmin}
}

// Parse converts a raw string into a [Role]. It is fail-closed: anything
// outside the closed set returns [ErrUnknown].
func Parse(s string) (Role, error) {
	r := Role(s)
	if _, ok := ranks[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := ranks[r]
	return ok
}

// Rank returns the position of r in the hierarchy, ascending privilege.
// Unrecognized roles rank below every valid role.
func (r Role) Rank() int {
	rank, ok := ranks[r]
	if !ok {
		return -1
	}
	return rank
}

// Satisfies reports whether r meets a requirement of the given role under
// hierarchy semantics: rank(r) >= rank(required). An invalid r never
// satisfies anything; an invalid requirement is never satisfied.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

// Highest returns the most senior role in the given set. Invalid entries are
// ignored; if none are valid, ok is false.
func Highest(roles []Role) (Role, bool) {
	best := -1
	var out Role
	for _, r := range roles {
		if rank := r.Rank(); rank > best {
			best = rank
			out = r
		}
	}
	return out, best >= 0
}

package middleware

import (
	"net/http"

	authgate "github.com/casterhq/authgate"
	"github.com/casterhq/authgate/role"
)

// Require gates a route on the role hierarchy: the authenticated identity's
// role must rank at or above the most senior of the given roles. Must be
// mounted after [Authenticate]; a request without an identity is rejected as
// unauthenticated, not forbidden.
func Require(engine *authgate.Engine, required ...role.Role) func(http.Handler) http.Handler {
	return requireMode(engine, authgate.ModeHierarchy, required)
}

// RequireExact gates a route on literal set membership with no hierarchy
// credit: only the listed roles pass, seniority does not help.
func RequireExact(engine *authgate.Engine, required ...role.Role) func(http.Handler) http.Handler {
	return requireMode(engine, authgate.ModeExact, required)
}

func requireMode(engine *authgate.Engine, mode authgate.AuthorizeMode, required []role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromRequest(r)
			if !ok {
				writeError(w, authgate.ErrIdentityRequired)
				return
			}

			if err := engine.Authorize(id, mode, required...); err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

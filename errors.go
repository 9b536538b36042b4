package authgate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casterhq/authgate/role"
	"github.com/casterhq/authgate/token"
)

var (
	// ErrMissingAuthHeader is returned by Authenticate when no Authorization
	// header is present.
	ErrMissingAuthHeader = errors.New("authorization header missing")
	// ErrBadAuthScheme is returned by Authenticate when the Authorization
	// header does not use the Bearer scheme.
	ErrBadAuthScheme = errors.New("authorization scheme must be Bearer")
	// ErrEmptyBearerToken is returned by Authenticate when the Bearer scheme
	// carries no token.
	ErrEmptyBearerToken = errors.New("bearer token empty")
	// ErrAccountNotFound is returned when the account referenced by a token
	// no longer exists. AccountStore implementations return it from lookups.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInactive is returned when the referenced account exists but
	// is deactivated.
	ErrAccountInactive = errors.New("account not active")
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password, without distinguishing the two.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityRequired is returned by Authorize when no identity was
	// resolved; authorization presupposes authentication.
	ErrIdentityRequired = errors.New("authentication required")
	// ErrRefreshTokenRequired is returned by Refresh for an empty input.
	ErrRefreshTokenRequired = errors.New("refresh token required")
	// ErrRefreshInvalid is the generic refresh failure surfaced to callers
	// so the refresh path never leaks why a token was rejected.
	ErrRefreshInvalid = errors.New("failed to refresh token, log in again")
	// ErrRefreshReused is returned when a presented refresh token does not
	// match the stored value for the account; the token was already rotated
	// or revoked.
	ErrRefreshReused = errors.New("refresh token superseded")
	// ErrResetInvalid is returned for an unknown, expired, or already
	// consumed password-reset token.
	ErrResetInvalid = errors.New("password reset token invalid or expired")
	// ErrStoreUnavailable wraps account-store and reset-store failures so
	// callers can distinguish "bad credentials" from "system degraded".
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// RoleError is the authorization denial. It carries the required role set so
// callers can render an actionable forbidden message; it never implies the
// identity itself is invalid.
type RoleError struct {
	Required []role.Role
	Exact    bool
}

func (e *RoleError) Error() string {
	names := make([]string, len(e.Required))
	for i, r := range e.Required {
		names[i] = string(r)
	}
	if e.Exact {
		return "forbidden: requires one of roles " + strings.Join(names, ", ")
	}
	return "forbidden: requires role " + strings.Join(names, ", ")
}

// Kind classifies an error into the taxonomy route handlers respond with.
type Kind uint8

const (
	// KindInternal is a store or signing failure: logged with detail
	// server-side, surfaced generically.
	KindInternal Kind = iota
	// KindValidation is malformed input to a pure operation; always
	// caller-correctable.
	KindValidation
	// KindAuthentication is a missing, invalid, or expired credential, or a
	// dead account.
	KindAuthentication
	// KindAuthorization is an authenticated identity with insufficient
	// privilege.
	KindAuthorization
)

// KindOf maps an error produced by this module onto its [Kind]. Unrecognized
// errors classify as internal so nothing unexpected leaks as a credential
// problem.
func KindOf(err error) Kind {
	var roleErr *RoleError
	if errors.As(err, &roleErr) {
		return KindAuthorization
	}

	switch {
	case errors.Is(err, token.ErrSubjectRequired),
		errors.Is(err, token.ErrEmailInvalid),
		errors.Is(err, token.ErrDurationInvalid),
		errors.Is(err, ErrRefreshTokenRequired):
		return KindValidation

	case errors.Is(err, ErrMissingAuthHeader),
		errors.Is(err, ErrBadAuthScheme),
		errors.Is(err, ErrEmptyBearerToken),
		errors.Is(err, token.ErrTokenEmpty),
		errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, token.ErrTokenInvalid),
		errors.Is(err, role.ErrUnknown),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrIdentityRequired),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrRefreshReused),
		errors.Is(err, ErrResetInvalid):
		return KindAuthentication

	default:
		return KindInternal
	}
}

// HTTPStatus maps an error onto the status a route handler should respond
// with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func wrapStore(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

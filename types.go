package authgate

import (
	"context"
	"time"

	"github.com/casterhq/authgate/role"
)

// TokenType is the fixed bearer scheme literal reported in [TokenPair].
const TokenType = "Bearer"

// Identity is the minimal per-request identity resolved from a verified
// access token. It is attached to the request context by the middleware
// package and consumed by role gates downstream.
type Identity struct {
	SubjectID string
	Email     string
	Role      role.Role
}

// TokenPair is the result of login, registration, and refresh: a short-lived
// access token, a long-lived refresh token signed with a distinct secret,
// and the access token's TTL in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// Account is the read-only view of an account record owned by the
// persistence layer. The engine mutates nothing beyond the fields named in
// [AccountUpdate].
type Account struct {
	ID           string
	Email        string
	Role         role.Role
	IsActive     bool
	PasswordHash string
	RefreshToken string
}

// AccountUpdate names the only account fields this core ever writes. Nil
// pointers mean "leave unchanged".
type AccountUpdate struct {
	RefreshToken *string
	PasswordHash *string
	LastLoginAt  *time.Time
}

// AccountStore is the integration point with the external persistence layer.
// Lookups return [ErrAccountNotFound] (possibly wrapped) when no account
// matches; any other error is treated as a system failure, not an
// authentication outcome. Implementations must be safe for concurrent use
// and honor context cancellation.
type AccountStore interface {
	FindAccountByID(ctx context.Context, id string) (*Account, error)
	// FindAccountByEmail returns the account including its credential hash.
	// Used only by the login and password-reset flows.
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, id string, update AccountUpdate) error
}

// AuthorizeMode selects how a required role set is evaluated.
type AuthorizeMode uint8

const (
	// ModeHierarchy allows any identity whose role ranks at or above the
	// most senior required role. The default.
	ModeHierarchy AuthorizeMode = iota
	// ModeExact allows only identities whose role literally appears in the
	// required set, with no hierarchy credit.
	ModeExact
)

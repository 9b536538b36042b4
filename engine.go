package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casterhq/authgate/password"
	"github.com/casterhq/authgate/role"
	"github.com/casterhq/authgate/token"
)

// Engine is the authentication and authorization core. All methods are safe
// for concurrent use after [Builder.Build].
type Engine struct {
	config   Config
	access   *token.Codec
	refresh  *token.Codec
	accounts AccountStore
	hasher   *password.Hasher
	resets   *resetStore
	logger   *slog.Logger
	metrics  *Metrics
}

const bearerPrefix = "Bearer "

// Authenticate turns a raw Authorization header value into a trusted
// identity: strict Bearer parse, access-token verification, then a mandatory
// liveness check against the account store so a still-valid token cannot
// authenticate a deleted or deactivated account.
//
// Header-shape and token failures are authentication errors with specific
// causes (no header, bad scheme, empty token, expired, invalid); store
// failures surface as [ErrStoreUnavailable] so callers can tell bad
// credentials from a degraded system.
func (e *Engine) Authenticate(ctx context.Context, authorization string) (id *Identity, err error) {
	defer func() { e.metrics.authenticateObserved(err) }()

	raw, err := bearerToken(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := e.access.Decode(raw)
	if err != nil {
		return nil, err
	}

	if err := e.checkLiveness(ctx, claims.Subject); err != nil {
		return nil, err
	}

	return &Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

func bearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingAuthHeader
	}
	// Scheme match is case-sensitive by contract.
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return "", ErrBadAuthScheme
	}

	raw := authorization[len(bearerPrefix):]
	if raw == "" {
		return "", ErrEmptyBearerToken
	}

	return raw, nil
}

func (e *Engine) checkLiveness(ctx context.Context, subjectID string) error {
	account, err := e.accounts.FindAccountByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		e.logger.Error("account liveness lookup failed",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return wrapStore(err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if !account.IsActive {
		return ErrAccountInactive
	}

	return nil
}

// Authorize decides whether a resolved identity may pass a role gate. A nil
// identity is an authentication failure, not an authorization one. In
// [ModeHierarchy] the identity's rank must meet the most senior required
// role; in [ModeExact] the identity's role must literally appear in the set.
// Denials return a [*RoleError] carrying the required roles.
func (e *Engine) Authorize(id *Identity, mode AuthorizeMode, required ...role.Role) error {
	if id == nil {
		return ErrIdentityRequired
	}
	if len(required) == 0 {
		return errors.New("no required roles given")
	}

	switch mode {
	case ModeExact:
		for _, r := range required {
			if id.Role == r && r.Valid() {
				return nil
			}
		}
		return &RoleError{Required: required, Exact: true}

	default:
		// Multiple required roles collapse to the most senior one; callers
		// wanting set membership must use ModeExact.
		top, ok := role.Highest(required)
		if !ok {
			return &RoleError{Required: required}
		}
		if id.Role.Satisfies(top) {
			return nil
		}
		return &RoleError{Required: []role.Role{top}}
	}
}

// IssueTokens produces an access/refresh pair for the identity. The refresh
// token always carries the minimal role, never the account's actual role, so
// it cannot authorize privileged operations directly. The caller is
// responsible for persisting the refresh token value; Login and Refresh do
// that themselves.
func (e *Engine) IssueTokens(id Identity) (*TokenPair, error) {
	accessToken, err := e.access.Encode(id.SubjectID, id.Email, id.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := e.refresh.Encode(id.SubjectID, id.Email, role.Minimal)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(e.access.TTL() / time.Second),
		TokenType:    TokenType,
	}, nil
}

// Login exchanges email+password for a token pair. Unknown email and wrong
// password are collapsed into [ErrInvalidCredentials]; a deactivated account
// reports [ErrAccountInactive]. On success the new refresh token and a
// last-login timestamp are persisted on the account.
func (e *Engine) Login(ctx context.Context, email, pass string) (pair *TokenPair, err error) {
	defer func() { e.metrics.loginObserved(err) }()

	account, err := e.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		e.logger.Error("login account lookup failed", slog.Any("error", err))
		return nil, wrapStore(err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(pass, account.PasswordHash)
	if err != nil {
		e.logger.Error("stored password hash unusable",
			slog.String("subject_id", account.ID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	pair, err = e.IssueTokens(Identity{SubjectID: account.ID, Email: account.Email, Role: account.Role})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	update := AccountUpdate{RefreshToken: &pair.RefreshToken, LastLoginAt: &now}
	if err := e.accounts.UpdateAccount(ctx, account.ID, update); err != nil {
		e.logger.Error("persisting refresh token failed",
			slog.String("subject_id", account.ID),
			slog.Any("error", err),
		)
		return nil, wrapStore(err)
	}

	return pair, nil
}

// Revoke clears the stored refresh-token value for the account so any
// outstanding refresh token stops working at its next use. Access tokens are
// stateless and expire on their own.
func (e *Engine) Revoke(ctx context.Context, subjectID string) error {
	empty := ""
	if err := e.accounts.UpdateAccount(ctx, subjectID, AccountUpdate{RefreshToken: &empty}); err != nil {
		e.logger.Error("refresh token revocation failed",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return wrapStore(err)
	}

	return nil
}

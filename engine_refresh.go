package authgate

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
)

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored refresh-token value on the account.
//
// The presented token must match the value stored at issuance: only one
// refresh token is ever live per account, and a superseded or revoked token
// is rejected as [ErrRefreshReused]. Decode failures are collapsed into the
// generic [ErrRefreshInvalid] so this path never explains why a token was
// rejected; the specific account-state errors ([ErrAccountNotFound],
// [ErrAccountInactive]) and input validation pass through unchanged.
//
// The rotated value is persisted before the pair is returned. If that write
// fails the previous stored token remains intact and the caller sees a
// store error, so the account is never left holding a token no client
// received.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { e.metrics.refreshObserved(err) }()

	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := e.refresh.Decode(refreshToken)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	account, err := e.accounts.FindAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		e.logger.Error("refresh account lookup failed",
			slog.String("subject_id", claims.Subject),
			slog.Any("error", err),
		)
		return nil, wrapStore(err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	if subtle.ConstantTimeCompare([]byte(account.RefreshToken), []byte(refreshToken)) != 1 {
		e.logger.Warn("refresh token does not match stored value",
			slog.String("subject_id", account.ID),
		)
		return nil, ErrRefreshReused
	}

	pair, err = e.IssueTokens(Identity{SubjectID: account.ID, Email: account.Email, Role: account.Role})
	if err != nil {
		e.logger.Error("refresh token issuance failed",
			slog.String("subject_id", account.ID),
			slog.Any("error", err),
		)
		return nil, ErrRefreshInvalid
	}

	update := AccountUpdate{RefreshToken: &pair.RefreshToken}
	if err := e.accounts.UpdateAccount(ctx, account.ID, update); err != nil {
		e.logger.Error("refresh token rotation write failed",
			slog.String("subject_id", account.ID),
			slog.Any("error", err),
		)
		return nil, wrapStore(err)
	}

	return pair, nil
}

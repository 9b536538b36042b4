package authgate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
)

// ErrPasswordResetDisabled is returned when the reset flow is not enabled in
// configuration.
var ErrPasswordResetDisabled = errors.New("password reset disabled")

const resetTokenBytes = 32

// RequestPasswordReset issues an opaque single-use reset token for the
// account with the given email. For an unknown email it returns an empty
// token and no error, so the response a route handler renders is identical
// either way and the endpoint cannot be used to enumerate accounts. Token
// delivery (email) is the caller's concern.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e.resets == nil {
		return "", ErrPasswordResetDisabled
	}

	account, err := e.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", nil
		}
		e.logger.Error("password reset lookup failed", slog.Any("error", err))
		return "", wrapStore(err)
	}
	if account == nil || !account.IsActive {
		return "", nil
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	resetToken := base64.RawURLEncoding.EncodeToString(raw)

	if err := e.resets.Save(ctx, resetToken, account.ID, e.config.PasswordReset.TTL); err != nil {
		e.logger.Error("password reset save failed",
			slog.String("subject_id", account.ID),
			slog.Any("error", err),
		)
		return "", wrapStore(err)
	}

	e.metrics.resetRequested()

	return resetToken, nil
}

// ConfirmPasswordReset spends a reset token, re-hashes the new password, and
// clears the stored refresh token so every existing session must log in
// again. An unknown, expired, or already-used token fails with
// [ErrResetInvalid].
func (e *Engine) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if e.resets == nil {
		return ErrPasswordResetDisabled
	}
	if resetToken == "" {
		return ErrResetInvalid
	}

	accountID, err := e.resets.Consume(ctx, resetToken)
	if err != nil {
		if errors.Is(err, ErrResetInvalid) {
			return ErrResetInvalid
		}
		e.logger.Error("password reset consume failed", slog.Any("error", err))
		return wrapStore(err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	empty := ""
	update := AccountUpdate{PasswordHash: &hash, RefreshToken: &empty}
	if err := e.accounts.UpdateAccount(ctx, accountID, update); err != nil {
		e.logger.Error("password reset write failed",
			slog.String("subject_id", accountID),
			slog.Any("error", err),
		)
		return wrapStore(err)
	}

	e.metrics.resetConfirmed()

	return nil
}

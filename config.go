package authgate

import (
	"bytes"
	"errors"
	"time"

	"github.com/casterhq/authgate/password"
)

// minSecretLength is the floor for HS256 signing secrets.
const minSecretLength = 32

// Config holds everything the engine needs. Construct via [DefaultConfig],
// then override; instances are cloned on Build and immutable afterwards.
type Config struct {
	JWT           JWTConfig
	Password      password.Params
	PasswordReset PasswordResetConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the two independent signing secrets and token TTLs.
// AccessSecret and RefreshSecret must differ: a token minted for one mode
// must never verify in the other.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset-token flow. The flow requires a
// Redis client on the builder when enabled.
type PasswordResetConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DefaultConfig returns the stock configuration: 15-minute access tokens,
// 7-day refresh tokens, moderate argon2id costs, and a 30-minute reset
// window. Secrets have no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: password.DefaultParams(),
		PasswordReset: PasswordResetConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
	}
}

// Validate checks the configuration for startup errors.
func (c *Config) Validate() error {
	if len(c.JWT.AccessSecret) < minSecretLength {
		return errors.New("access secret must be at least 32 bytes")
	}
	if len(c.JWT.RefreshSecret) < minSecretLength {
		return errors.New("refresh secret must be at least 32 bytes")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.PasswordReset.Enabled && c.PasswordReset.TTL <= 0 {
		return errors.New("password reset TTL must be positive")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

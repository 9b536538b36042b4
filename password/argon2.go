// Package password hashes and verifies credentials with argon2id, using the
// standard PHC string format so hashes remain portable across deployments.
//
// The authentication core delegates password storage policy here; callers
// configure cost parameters once and treat the [Hasher] as immutable.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithm = "argon2id"

	minMemoryKB   = 8 * 1024
	minSaltLength = 16
	minKeyLength  = 16
	minPassword   = 8
)

// ErrHashMalformed is returned when a stored hash cannot be parsed as an
// argon2id PHC string produced by this package.
var ErrHashMalformed = errors.New("malformed password hash")

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns moderate interactive-login costs.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and verifies argon2id hashes. Safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates the cost parameters and returns a Hasher.
func NewHasher(p Params) (*Hasher, error) {
	switch {
	case p.Memory < minMemoryKB:
		return nil, errors.New("argon2 memory must be >= 8192 KiB")
	case p.Time < 1:
		return nil, errors.New("argon2 time must be >= 1")
	case p.Parallelism < 1:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case p.SaltLength < minSaltLength:
		return nil, errors.New("argon2 salt length must be >= 16")
	case p.KeyLength < minKeyLength:
		return nil, errors.New("argon2 key length must be >= 16")
	}
	return &Hasher{params: p}, nil
}

// Hash derives an argon2id hash for the password and encodes it in PHC form.
// Passwords are used byte-for-byte as provided, without normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassword {
		return "", fmt.Errorf("password must be at least %d bytes", minPassword)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password), salt,
		h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength,
	)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the password matches the encoded hash. Comparison is
// constant-time; parse failures return [ErrHashMalformed].
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	p, salt, want, err := decode(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithm {
		return p, nil, nil, ErrHashMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version", ErrHashMalformed)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: bad parameters", ErrHashMalformed)
	}
	if p.Memory < minMemoryKB || p.Time < 1 || p.Parallelism < 1 {
		return p, nil, nil, fmt.Errorf("%w: parameters below minimum", ErrHashMalformed)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLength {
		return p, nil, nil, fmt.Errorf("%w: bad salt", ErrHashMalformed)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minKeyLength {
		return p, nil, nil, fmt.Errorf("%w: bad key", ErrHashMalformed)
	}

	return p, salt, key, nil
}

package token

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/casterhq/authgate/role"
)

var (
	// ErrSubjectRequired is returned by Encode when the subject id is empty.
	ErrSubjectRequired = errors.New("subject id required")
	// ErrEmailInvalid is returned by Encode when the email does not match the
	// expected shape.
	ErrEmailInvalid = errors.New("invalid email format")
	// ErrTokenEmpty is returned by Decode for an empty token string.
	ErrTokenEmpty = errors.New("token empty")
	// ErrTokenExpired is returned by Decode when the embedded expiry has
	// passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by Decode for any token whose signature,
	// structure, or claims do not verify.
	ErrTokenInvalid = errors.New("token invalid")
)

// emailPattern is intentionally loose: non-whitespace, an @, non-whitespace,
// a dot, non-whitespace. Deliverability is not this package's problem.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Claims is the signed payload carried by every token.
type Claims struct {
	Email string    `json:"email"`
	Role  role.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session claims with a single HS256 secret.
// Instances are immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option adjusts Codec construction.
type Option func(*Codec)

// WithIssuer sets the iss claim stamped on encoded tokens.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

// WithClock overrides the clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec for one signing mode (access or refresh). The
// secret must be non-empty and ttl must be positive.
func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TTL returns the lifetime stamped on tokens this Codec encodes.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode validates the identity fields and returns a signed compact token.
// Violations are reported with [ErrSubjectRequired], [ErrEmailInvalid], or
// [role.ErrUnknown].
func (c *Codec) Encode(subjectID, email string, r role.Role) (string, error) {
	if subjectID == "" {
		return "", ErrSubjectRequired
	}
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: %q", ErrEmailInvalid, email)
	}
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", role.ErrUnknown, r)
	}

	now := c.now()
	claims := Claims{
		Email: email,
		Role:  r,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and returns the claims. Every failure is an
// authentication-class error: [ErrTokenEmpty], [ErrTokenExpired], or
// [ErrTokenInvalid] (wrapping the underlying cause where one exists).
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenEmpty
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if err := c.checkStructure(&claims); err != nil {
		return nil, err
	}

	// Redundant with the parser's exp validation on purpose: the claim must
	// hold against this process's wall clock regardless of library leeway.
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

func (c *Codec) checkStructure(claims *Claims) error {
	switch {
	case claims.Subject == "":
		return fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	case claims.Email == "":
		return fmt.Errorf("%w: missing email", ErrTokenInvalid)
	case claims.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", ErrTokenInvalid)
	case claims.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	case !claims.Role.Valid():
		// Fail closed: an unrecognized role is rejected, never downgraded.
		return fmt.Errorf("%w: %s %q", ErrTokenInvalid, "unrecognized role", claims.Role)
	}
	return nil
}

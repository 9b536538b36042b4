package authgate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "pr"

var errResetUnavailable = errors.New("reset store unavailable")

// resetStore keeps single-use password-reset tokens in Redis. Only the
// SHA-256 of a token is stored, keyed by that hash, so a dump of the store
// never yields usable tokens. Consumption is GETDEL: atomic lookup-and-burn,
// so two racing confirmations cannot both spend one token.
type resetStore struct {
	redis redis.UniversalClient
}

func newResetStore(client redis.UniversalClient) *resetStore {
	return &resetStore{redis: client}
}

func resetKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return resetKeyPrefix + ":" + hex.EncodeToString(sum[:])
}

func (s *resetStore) Save(ctx context.Context, rawToken, accountID string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, resetKey(rawToken), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errResetUnavailable, err)
	}

	return nil
}

// Consume returns the account id bound to the token and deletes it in the
// same step. A missing or expired token reports ErrResetInvalid.
func (s *resetStore) Consume(ctx context.Context, rawToken string) (string, error) {
	accountID, err := s.redis.GetDel(ctx, resetKey(rawToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetInvalid
		}
		return "", fmt.Errorf("%w: %v", errResetUnavailable, err)
	}

	return accountID, nil
}

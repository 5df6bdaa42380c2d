package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which entry a client-supplied Idempotency-Key
// produced, per principal.
// Key format: idem:entries:<principal_id>:<key>
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl uses 24h.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the entry id stored for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, principalID int64, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.key(principalID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q: %w", val, err)
	}
	return id, true, nil
}

// Remember records that key produced entryID. It expires after the
// configured TTL.
func (s *IdempotencyStore) Remember(ctx context.Context, principalID int64, key string, entryID int64) error {
	err := s.client.Set(ctx, s.key(principalID, key), strconv.FormatInt(entryID, 10), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(principalID int64, key string) string {
	return fmt.Sprintf("idem:entries:%d:%s", principalID, key)
}

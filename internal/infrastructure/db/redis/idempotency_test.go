package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands IdempotencyStore uses. Any other
// call panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestIdempotencyStore_RememberThenLookup(t *testing.T) {
	fake := newFakeRedis()
	s := NewIdempotencyStore(fake, time.Hour)
	ctx := context.Background()

	_, found, err := s.Lookup(ctx, 1, "abc")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Remember(ctx, 1, "abc", 42))
	require.Equal(t, "42", fake.data["idem:entries:1:abc"])
	require.Equal(t, time.Hour, fake.ttls["idem:entries:1:abc"])

	id, found, err := s.Lookup(ctx, 1, "abc")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(42), id)
}

func TestIdempotencyStore_ScopedPerPrincipal(t *testing.T) {
	s := NewIdempotencyStore(newFakeRedis(), time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, 1, "abc", 42))

	_, found, err := s.Lookup(ctx, 2, "abc")
	require.NoError(t, err)
	require.False(t, found)
}

func TestIdempotencyStore_DefaultTTL(t *testing.T) {
	fake := newFakeRedis()
	s := NewIdempotencyStore(fake, 0)

	require.NoError(t, s.Remember(context.Background(), 1, "k", 1))
	require.Equal(t, defaultIdempotencyTTL, fake.ttls["idem:entries:1:k"])
}

func TestIdempotencyStore_Errors(t *testing.T) {
	down := errors.New("connection refused")
	fake := newFakeRedis()
	fake.err = down
	s := NewIdempotencyStore(fake, time.Hour)
	ctx := context.Background()

	_, _, err := s.Lookup(ctx, 1, "k")
	require.ErrorIs(t, err, down)
	require.ErrorIs(t, s.Remember(ctx, 1, "k", 1), down)
}

func TestIdempotencyStore_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	fake.data["idem:entries:1:k"] = "not-a-number"

	_, found, err := NewIdempotencyStore(fake, time.Hour).Lookup(context.Background(), 1, "k")
	require.Error(t, err)
	require.False(t, found)
}

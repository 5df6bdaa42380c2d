package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/infrastructure/lock"
	"github.com/aijournal/journal-api/pkg/hash"
)

// ---------------------------------------------------------------------------
// In-memory stub collection
// ---------------------------------------------------------------------------

// stubCollection behaves like a document store collection: Load hands out a
// private copy and Save replaces the whole stored state.
type stubCollection[T any] struct {
	mu       sync.Mutex
	sequence int64
	records  []T
	saves    int
	loadErr  error
	saveErr  error
}

func (c *stubCollection[T]) Load(context.Context) (*domain.Snapshot[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return &domain.Snapshot[T]{
		Sequence: c.sequence,
		Records:  append([]T(nil), c.records...),
	}, nil
}

func (c *stubCollection[T]) Save(_ context.Context, snap *domain.Snapshot[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.sequence = snap.Sequence
	c.records = append([]T(nil), snap.Records...)
	c.saves++
	return nil
}

func (c *stubCollection[T]) all() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.records...)
}

func (c *stubCollection[T]) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

// ---------------------------------------------------------------------------
// Stub hasher
// ---------------------------------------------------------------------------

var errMismatch = errors.New("hash mismatch")

// stubHasher "hashes" by prefixing; it counts comparisons so tests can check
// that failed logins do equal work.
type stubHasher struct {
	compares atomic.Int32
}

func (h *stubHasher) Hash(secret string) (string, error) {
	if len(secret) > hash.MaxPasswordBytes {
		return "", hash.ErrPasswordTooLong
	}
	return "hashed:" + secret, nil
}

func (h *stubHasher) Compare(hashed, secret string) error {
	h.compares.Add(1)
	if !strings.HasPrefix(hashed, "hashed:") || hashed != "hashed:"+secret {
		return errMismatch
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stub idempotency store
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu        sync.Mutex
	keys      map[string]int64
	lookupErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]int64)}
}

func (s *stubIdempotency) Lookup(_ context.Context, principalID int64, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return 0, false, s.lookupErr
	}
	id, ok := s.keys[idemKey(principalID, key)]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, principalID int64, key string, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(principalID, key)] = entryID
	return nil
}

func idemKey(principalID int64, key string) string {
	return fmt.Sprintf("%d:%s", principalID, key)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestSerializer() *lock.Serializer {
	return lock.NewSerializer(5 * time.Second)
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func authFor(id int64) domain.AuthContext {
	return domain.AuthContext{PrincipalID: id, Email: "user@example.com"}
}

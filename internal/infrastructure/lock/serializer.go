// Package lock provides the per-collection write serializer guarding every
// read-modify-write cycle on the document store.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/pkg/metrics"
)

// ErrReentrant is returned when a caller already holding a collection asks
// for it again. Waiting would deadlock, so the call fails immediately.
var ErrReentrant = errors.New("lock: re-entrant acquisition")

// Serializer hands out one exclusive slot per collection name. Each slot is a
// weighted semaphore of size one, which admits waiters in FIFO order and
// drops waiters whose context ends.
type Serializer struct {
	mu      sync.Mutex
	slots   map[string]*semaphore.Weighted
	timeout time.Duration
}

// NewSerializer returns a Serializer that gives up waiting after timeout.
// A zero timeout waits until the caller's context ends.
func NewSerializer(timeout time.Duration) *Serializer {
	return &Serializer{
		slots:   make(map[string]*semaphore.Weighted),
		timeout: timeout,
	}
}

func (s *Serializer) slot(collection string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	sem, ok := s.slots[collection]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.slots[collection] = sem
	}
	return sem
}

// WithExclusiveAccess implements ports.WriteSerializer. Waiting longer than
// the configured timeout, or past the end of ctx, fails with a
// *domain.StorageError of kind domain.ErrStorageBusy.
func (s *Serializer) WithExclusiveAccess(ctx context.Context, collection string, fn func(ctx context.Context) error) error {
	if holds(ctx, collection) {
		return fmt.Errorf("%w of %q", ErrReentrant, collection)
	}

	waitCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sem := s.slot(collection)
	start := time.Now()
	if err := sem.Acquire(waitCtx, 1); err != nil {
		metrics.StoreLockBusyTotal.WithLabelValues(collection).Inc()
		return &domain.StorageError{Op: "acquire", Collection: collection, Kind: domain.ErrStorageBusy, Err: err}
	}
	defer sem.Release(1)
	metrics.StoreLockWaitSeconds.WithLabelValues(collection).Observe(time.Since(start).Seconds())

	return fn(withHeld(ctx, collection))
}

type heldKey struct{}

// held is the chain of collections owned by the current call stack.
type held struct {
	collection string
	parent     *held
}

func withHeld(ctx context.Context, collection string) context.Context {
	parent, _ := ctx.Value(heldKey{}).(*held)
	return context.WithValue(ctx, heldKey{}, &held{collection: collection, parent: parent})
}

func holds(ctx context.Context, collection string) bool {
	for h, _ := ctx.Value(heldKey{}).(*held); h != nil; h = h.parent {
		if h.collection == collection {
			return true
		}
	}
	return false
}

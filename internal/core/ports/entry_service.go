package ports

import (
	"context"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// AddEntryInput carries the data needed to create an entry.
type AddEntryInput struct {
	Text string
	// IdempotencyKey is optional. A repeated key from the same principal
	// returns the entry created by the first request.
	IdempotencyKey string
}

// AddEntryResult is returned by EntryService.Add.
type AddEntryResult struct {
	Entry domain.Entry
	// Replayed is true when the idempotency key matched an earlier request.
	Replayed bool
}

// EntryService defines owner-scoped operations on journal entries.
type EntryService interface {
	List(ctx context.Context, auth domain.AuthContext) ([]domain.Entry, error)
	Get(ctx context.Context, auth domain.AuthContext, id int64) (*domain.Entry, error)
	Add(ctx context.Context, auth domain.AuthContext, input AddEntryInput) (*AddEntryResult, error)
	Update(ctx context.Context, auth domain.AuthContext, id int64, text string) (*domain.Entry, error)
	Remove(ctx context.Context, auth domain.AuthContext, id int64) error
}

// IdempotencyStore remembers which entry an idempotency key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, principalID int64, key string) (entryID int64, found bool, err error)
	Remember(ctx context.Context, principalID int64, key string, entryID int64) error
}

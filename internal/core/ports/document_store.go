package ports

import (
	"context"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// DocumentStore persists one blob per named collection. Reads of a
// collection that was never written return an empty blob. Writes replace the
// whole blob atomically and are durable once they return.
//
// Failures are *domain.StorageError values of kind domain.ErrStorageIO or
// domain.ErrStorageFormat.
type DocumentStore interface {
	ReadCollection(ctx context.Context, name string) (*domain.Blob, error)
	WriteCollection(ctx context.Context, name string, blob *domain.Blob) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Collection is a typed view over a single document store collection.
type Collection[T any] interface {
	Load(ctx context.Context) (*domain.Snapshot[T], error)
	Save(ctx context.Context, snap *domain.Snapshot[T]) error
}

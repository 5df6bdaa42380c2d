package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/core/ports"
)

// Collection is a typed view over one named collection of a DocumentStore.
type Collection[T any] struct {
	store  ports.DocumentStore
	name   string
	encode func(T) any
	decode func(json.RawMessage) (T, error)
}

// NewUserCollection returns the typed "users" collection.
func NewUserCollection(store ports.DocumentStore) *Collection[domain.User] {
	return &Collection[domain.User]{
		store:  store,
		name:   domain.CollectionUsers,
		encode: func(u domain.User) any { return userToRecord(u) },
		decode: func(raw json.RawMessage) (domain.User, error) {
			var r userRecord
			if err := json.Unmarshal(raw, &r); err != nil {
				return domain.User{}, err
			}
			return r.toDomain(), nil
		},
	}
}

// NewEntryCollection returns the typed "entries" collection.
func NewEntryCollection(store ports.DocumentStore) *Collection[domain.Entry] {
	return &Collection[domain.Entry]{
		store:  store,
		name:   domain.CollectionEntries,
		encode: func(e domain.Entry) any { return entryToRecord(e) },
		decode: func(raw json.RawMessage) (domain.Entry, error) {
			var r entryRecord
			if err := json.Unmarshal(raw, &r); err != nil {
				return domain.Entry{}, err
			}
			return r.toDomain(), nil
		},
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Load reads the whole collection and decodes every record.
func (c *Collection[T]) Load(ctx context.Context) (*domain.Snapshot[T], error) {
	blob, err := c.store.ReadCollection(ctx, c.name)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot[T]{
		Sequence: blob.Sequence,
		Records:  make([]T, 0, len(blob.Records)),
	}
	for i, raw := range blob.Records {
		rec, err := c.decode(raw)
		if err != nil {
			return nil, &domain.StorageError{
				Op:         "decode",
				Collection: c.name,
				Kind:       domain.ErrStorageFormat,
				Err:        fmt.Errorf("record %d: %w", i, err),
			}
		}
		snap.Records = append(snap.Records, rec)
	}
	return snap, nil
}

// Save encodes snap and replaces the whole collection with it.
func (c *Collection[T]) Save(ctx context.Context, snap *domain.Snapshot[T]) error {
	blob := &domain.Blob{
		Version:  domain.BlobVersion,
		Sequence: snap.Sequence,
		Records:  make([]json.RawMessage, 0, len(snap.Records)),
	}
	for i, rec := range snap.Records {
		raw, err := json.Marshal(c.encode(rec))
		if err != nil {
			return &domain.StorageError{
				Op:         "encode",
				Collection: c.name,
				Kind:       domain.ErrStorageFormat,
				Err:        fmt.Errorf("record %d: %w", i, err),
			}
		}
		blob.Records = append(blob.Records, raw)
	}
	return c.store.WriteCollection(ctx, c.name, blob)
}

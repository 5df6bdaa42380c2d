// Package mongo implements the document store on MongoDB. Each collection
// blob is a single document in the "collections" collection keyed by name,
// so a write replaces the whole blob in one operation.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/pkg/metrics"
)

const blobsCollection = "collections"

// blobDocument is the persisted form of a domain.Blob.
type blobDocument struct {
	Name     string   `bson:"_id"`
	Version  int      `bson:"version"`
	Sequence int64    `bson:"sequence"`
	Records  []bson.D `bson:"records"`
}

// Store is a ports.DocumentStore backed by MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore wraps an established connection.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, coll: db.Collection(blobsCollection)}
}

// Open connects using cfg and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(client, db), nil
}

// ReadCollection implements ports.DocumentStore. A missing document is an
// empty collection.
func (s *Store) ReadCollection(ctx context.Context, name string) (*domain.Blob, error) {
	raw, err := s.coll.FindOne(ctx, bson.M{"_id": name}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NewBlob(), nil
	}
	if err != nil {
		return nil, fail("read", name, domain.ErrStorageIO, err)
	}

	blob, err := decodeDocument(raw)
	if err != nil {
		return nil, fail("read", name, domain.ErrStorageFormat, err)
	}
	return blob, nil
}

// decodeDocument parses a stored blob document. Every failure here means the
// persisted data is malformed.
func decodeDocument(raw bson.Raw) (*domain.Blob, error) {
	var doc blobDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Version > domain.BlobVersion {
		return nil, fmt.Errorf("unsupported blob version %d", doc.Version)
	}
	return fromDocument(doc)
}

// WriteCollection implements ports.DocumentStore with a single upsert.
func (s *Store) WriteCollection(ctx context.Context, name string, blob *domain.Blob) error {
	doc, err := toDocument(name, blob)
	if err != nil {
		return fail("write", name, domain.ErrStorageFormat, err)
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fail("write", name, domain.ErrStorageIO, err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func fail(op, name string, kind, err error) error {
	k := "io"
	if errors.Is(kind, domain.ErrStorageFormat) {
		k = "format"
	}
	metrics.StoreOperationErrorsTotal.WithLabelValues(op, k).Inc()
	return &domain.StorageError{Op: op, Collection: name, Kind: kind, Err: err}
}

// toDocument converts JSON records to BSON through relaxed extended JSON, so
// numbers and strings keep their JSON types.
func toDocument(name string, blob *domain.Blob) (blobDocument, error) {
	doc := blobDocument{
		Name:     name,
		Version:  domain.BlobVersion,
		Sequence: blob.Sequence,
		Records:  make([]bson.D, 0, len(blob.Records)),
	}
	for i, raw := range blob.Records {
		var rec bson.D
		if err := bson.UnmarshalExtJSON(raw, false, &rec); err != nil {
			return blobDocument{}, fmt.Errorf("record %d: %w", i, err)
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

func fromDocument(doc blobDocument) (*domain.Blob, error) {
	blob := &domain.Blob{
		Version:  doc.Version,
		Sequence: doc.Sequence,
		Records:  make([]json.RawMessage, 0, len(doc.Records)),
	}
	for i, rec := range doc.Records {
		raw, err := bson.MarshalExtJSON(rec, false, false)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		blob.Records = append(blob.Records, raw)
	}
	return blob, nil
}

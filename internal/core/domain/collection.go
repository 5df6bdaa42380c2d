package domain

import "encoding/json"

// BlobVersion is the schema version written into every collection blob.
const BlobVersion = 1

// Blob is the durable representation of one collection: an ordered list of
// flat JSON records plus the last id handed out. Sequence only grows, so ids
// are never reused even after the newest record is deleted.
type Blob struct {
	Version  int               `json:"version"`
	Sequence int64             `json:"sequence"`
	Records  []json.RawMessage `json:"records"`
}

// NewBlob returns an empty, never-written collection.
func NewBlob() *Blob {
	return &Blob{Version: BlobVersion, Records: []json.RawMessage{}}
}

// Snapshot is a decoded, typed copy of a collection taken at read time.
// Mutations only become durable once the snapshot is saved back.
type Snapshot[T any] struct {
	Sequence int64
	Records  []T
}

// NextID reserves and returns the next record id.
func (s *Snapshot[T]) NextID() int64 {
	s.Sequence++
	return s.Sequence
}

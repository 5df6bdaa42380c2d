// Package document converts collection blobs to and from their persisted
// bytes and maps raw records onto domain types.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// DecodeBlob parses persisted collection bytes. Empty input is a collection
// that was never written. A bare JSON array is the unversioned layout and is
// read as version 0 with the sequence taken from its highest record id.
func DecodeBlob(data []byte) (*domain.Blob, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.NewBlob(), nil
	}

	blob := &domain.Blob{}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &blob.Records); err != nil {
			return nil, fmt.Errorf("decode legacy records: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, blob); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if blob.Version > domain.BlobVersion {
			return nil, fmt.Errorf("unsupported blob version %d", blob.Version)
		}
	}
	if blob.Records == nil {
		blob.Records = []json.RawMessage{}
	}

	maxID, err := maxRecordID(blob.Records)
	if err != nil {
		return nil, err
	}
	if maxID > blob.Sequence {
		blob.Sequence = maxID
	}
	return blob, nil
}

// EncodeBlob renders blob as indented JSON stamped with the current version.
func EncodeBlob(blob *domain.Blob) ([]byte, error) {
	out := domain.Blob{
		Version:  domain.BlobVersion,
		Sequence: blob.Sequence,
		Records:  blob.Records,
	}
	if out.Records == nil {
		out.Records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	return append(data, '\n'), nil
}

func maxRecordID(records []json.RawMessage) (int64, error) {
	var maxID int64
	for i, raw := range records {
		var rec struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return maxID, nil
}

package domain

import (
	"sort"
	"time"
)

// CollectionEntries is the document store collection holding journal entries.
const CollectionEntries = "entries"

// Entry is a single journal entry. OwnerID and CreatedAt never change after
// creation; only Text (and UpdatedAt) is rewritten by an update.
type Entry struct {
	ID        int64
	OwnerID   int64
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether principalID owns the entry.
func (e Entry) OwnedBy(principalID int64) bool {
	return e.OwnerID == principalID
}

// IndexOwnedEntry returns the position of the entry matching both id and
// owner, or -1. An entry owned by someone else is reported exactly like a
// missing one.
func IndexOwnedEntry(entries []Entry, id, principalID int64) int {
	for i := range entries {
		if entries[i].ID == id && entries[i].OwnedBy(principalID) {
			return i
		}
	}
	return -1
}

// EntriesOwnedBy returns a copy of the entries owned by principalID, newest
// first. Entries created at the same instant are ordered by descending id.
func EntriesOwnedBy(entries []Entry, principalID int64) []Entry {
	out := make([]Entry, 0)
	for _, e := range entries {
		if e.OwnedBy(principalID) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

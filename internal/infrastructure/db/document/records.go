package document

import (
	"time"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// userRecord is the persisted shape of a user. Field names follow the files
// written by the original Node service so existing data keeps loading.
type userRecord struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func userToRecord(u domain.User) userRecord {
	return userRecord{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
	}
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
	}
}

type entryRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func entryToRecord(e domain.Entry) entryRecord {
	return entryRecord{
		ID:        e.ID,
		UserID:    e.OwnerID,
		Text:      e.Text,
		Date:      e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (r entryRecord) toDomain() domain.Entry {
	return domain.Entry{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Text:      r.Text,
		CreatedAt: r.Date,
		UpdatedAt: r.UpdatedAt,
	}
}

package handler

import (
	"time"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// --- Entries ---

// Entry field names follow the original web client.
type entryRequest struct {
	Text string `json:"text" validate:"required"`
}

type entryResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Text      string     `json:"text"`
	Date      time.Time  `json:"date"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toEntryResponse(e domain.Entry) entryResponse {
	resp := entryResponse{
		ID:     e.ID,
		UserID: e.OwnerID,
		Text:   e.Text,
		Date:   e.CreatedAt,
	}
	if !e.UpdatedAt.IsZero() {
		updated := e.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func toEntryResponses(entries []domain.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

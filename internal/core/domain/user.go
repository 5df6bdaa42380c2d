package domain

import "time"

// CollectionUsers is the document store collection holding principals.
const CollectionUsers = "users"

// User models a registered principal. Users are created once and never
// mutated or deleted.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// FindUserByEmail returns the user whose email matches exactly, or nil.
func FindUserByEmail(users []User, email string) *User {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}

// FindUserByID returns the user with the given id, or nil.
func FindUserByID(users []User, id int64) *User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

package domain

import "time"

// AuthContext is the identity resolved from a bearer token. It lives for a
// single request and is passed explicitly to every scoped operation.
type AuthContext struct {
	PrincipalID int64
	Email       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	TokenID     string
}

// IsZero reports whether no principal was resolved.
func (a AuthContext) IsZero() bool {
	return a.PrincipalID == 0
}

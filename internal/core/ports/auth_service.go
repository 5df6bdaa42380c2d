package ports

import (
	"context"

	"github.com/aijournal/journal-api/internal/core/domain"
)

// PasswordHasher is a one-way hash with verification.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

// TokenSigner turns an AuthContext into a signed bearer token and back.
// Verify fails for malformed, tampered or expired tokens.
type TokenSigner interface {
	Sign(auth domain.AuthContext) (string, error)
	Verify(token string) (domain.AuthContext, error)
}

// Authenticator resolves a bearer token to an AuthContext.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.AuthContext, error)
}

type AuthService interface {
	Authenticator
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, domain.AuthContext, error)
	Me(ctx context.Context, auth domain.AuthContext) (*domain.User, error)
}

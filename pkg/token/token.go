// Package token signs and verifies HS256 bearer tokens carrying a principal
// identity.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aijournal/journal-api/internal/core/domain"
)

var (
	ErrInvalid = errors.New("token invalid")
	ErrExpired = errors.New("token expired")
)

// Claims is the token payload. The principal id is carried both as the
// standard subject and as "id" for clients that read the payload directly.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// Signer implements ports.TokenSigner with a shared HMAC secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// WithClock returns a copy of the signer that validates expiry against now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	return &Signer{secret: s.secret, now: now}
}

func (s *Signer) Sign(auth domain.AuthContext) (string, error) {
	if auth.IsZero() {
		return "", fmt.Errorf("sign token: %w: missing principal", ErrInvalid)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(auth.PrincipalID, 10),
			IssuedAt:  jwt.NewNumericDate(auth.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(auth.ExpiresAt),
			ID:        auth.TokenID,
		},
		UserID: auth.PrincipalID,
		Email:  auth.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Signer) Verify(tokenString string) (domain.AuthContext, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.AuthContext{}, ErrExpired
		}
		return domain.AuthContext{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !tkn.Valid || claims.UserID <= 0 {
		return domain.AuthContext{}, ErrInvalid
	}

	auth := domain.AuthContext{
		PrincipalID: claims.UserID,
		Email:       claims.Email,
		TokenID:     claims.ID,
	}
	if claims.IssuedAt != nil {
		auth.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Time
	}
	return auth, nil
}

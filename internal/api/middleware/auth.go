package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/core/ports"
)

// AuthContextKey is the echo.Context key holding the resolved domain.AuthContext.
const AuthContextKey = "auth"

// Auth resolves the bearer token and attaches the resulting AuthContext to
// the request. A missing or non-bearer Authorization header fails with
// domain.ErrTokenMissing; a token that does not verify fails with
// domain.ErrTokenInvalid.
func Auth(authenticator ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domain.ErrTokenMissing
			}

			auth, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(AuthContextKey, auth)
			return next(c)
		}
	}
}

// AuthContextFrom returns the AuthContext set by Auth.
func AuthContextFrom(c echo.Context) (domain.AuthContext, bool) {
	auth, ok := c.Get(AuthContextKey).(domain.AuthContext)
	return auth, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

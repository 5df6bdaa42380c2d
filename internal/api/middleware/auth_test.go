package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/aijournal/journal-api/internal/core/domain"
)

type stubAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (domain.AuthContext, error)
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (domain.AuthContext, error) {
	return s.authenticateFn(ctx, token)
}

func acceptOnly(valid string, id int64) *stubAuthenticator {
	return &stubAuthenticator{authenticateFn: func(_ context.Context, token string) (domain.AuthContext, error) {
		if token != valid {
			return domain.AuthContext{}, domain.ErrTokenInvalid
		}
		return domain.AuthContext{PrincipalID: id, Email: "alice@example.com"}, nil
	}}
}

func runAuth(t *testing.T, a *stubAuthenticator, header string) (called bool, got domain.AuthContext, err error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err = Auth(a)(func(c echo.Context) error {
		called = true
		got, _ = AuthContextFrom(c)
		return nil
	})(c)
	return called, got, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	called, got, err := runAuth(t, acceptOnly("good", 7), "Bearer good")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if got.PrincipalID != 7 || got.Email != "alice@example.com" {
		t.Fatalf("unexpected auth context: %+v", got)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	called, _, err := runAuth(t, acceptOnly("good", 7), "bearer good")
	if err != nil || !called {
		t.Fatalf("expected lowercase scheme to pass, got called=%v err=%v", called, err)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	tests := map[string]string{
		"no header":    "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"scheme only":  "Bearer",
		"empty token":  "Bearer    ",
		"token only":   "good",
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			called, _, err := runAuth(t, acceptOnly("good", 7), header)
			if called {
				t.Fatalf("next must not be called")
			}
			if !errors.Is(err, domain.ErrTokenMissing) {
				t.Fatalf("expected ErrTokenMissing, got %v", err)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	called, _, err := runAuth(t, acceptOnly("good", 7), "Bearer forged")
	if called {
		t.Fatalf("next must not be called")
	}
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthContextFrom_Unset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if _, ok := AuthContextFrom(c); ok {
		t.Fatal("expected no auth context")
	}
}

package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aijournal/journal-api/internal/api/middleware"
	"github.com/aijournal/journal-api/internal/core/domain"
)

// authContext returns the identity the Auth middleware attached. A route
// mounted without the middleware fails closed.
func authContext(c echo.Context) (domain.AuthContext, error) {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok || auth.IsZero() {
		return domain.AuthContext{}, domain.ErrTokenMissing
	}
	return auth, nil
}

// entryID parses the :id path parameter.
func entryID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid entry id %q", domain.ErrValidation, c.Param("id"))
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}

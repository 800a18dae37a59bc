package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rupagen/marketplace-api/internal/api/middleware"
	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// identity is the authenticated caller as set by the Auth middleware.
type identity struct {
	UserID string
	Role   domain.Role
	Token  string
}

// ctxIdentity extracts the identity injected by the Auth middleware. A missing
// user id means the route was wired without Auth.
func ctxIdentity(c echo.Context) (identity, error) {
	id := identity{}
	id.UserID, _ = c.Get(middleware.CtxUserID).(string)
	id.Role, _ = c.Get(middleware.CtxRole).(domain.Role)
	id.Token, _ = c.Get(middleware.CtxToken).(string)
	if id.UserID == "" {
		return identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

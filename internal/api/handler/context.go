package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atica/user-roster/internal/api/middleware"
	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
)

// ctxRole extracts the role injected by the Auth middleware. A role without
// data access yields domain.ErrForbidden.
func ctxRole(c echo.Context, svc ports.UserService) (string, error) {
	role, _ := c.Get(middleware.ContextRole).(string)
	if !svc.CanAccessData(role) {
		return "", domain.ErrForbidden
	}
	return role, nil
}

// pathID parses the :id route parameter as a positive integer.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

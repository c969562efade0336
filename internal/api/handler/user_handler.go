package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /v1/users safely.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// IdempotencyStore remembers the user created for an Idempotency-Key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (int64, bool, error)
	Remember(ctx context.Context, key string, id int64) error
}

// UserHandler handles HTTP requests for roster operations.
type UserHandler struct {
	service ports.UserService
	idem    IdempotencyStore
	log     zerolog.Logger
}

// NewUserHandler builds a UserHandler. idem may be nil, in which case the
// Idempotency-Key header is ignored.
func NewUserHandler(service ports.UserService, idem IdempotencyStore, log zerolog.Logger) *UserHandler {
	return &UserHandler{service: service, idem: idem, log: log}
}

// List handles GET /v1/users.
//
// @Summary      List the users visible to the caller
// @Description  Administrators see every active user; other roles see active users with their own role.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listUsersResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	role, err := ctxRole(c, h.service)
	if err != nil {
		return err
	}

	users, err := h.service.ListUsers(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(users))
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	if _, err := ctxRole(c, h.service); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	u, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, toUserResponse(*u))
}

// Create handles POST /v1/users.
//
// @Summary      Create a user
// @Description  Send an Idempotency-Key header to make retries return the original result.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Client-chosen retry key"
// @Param        body             body      createUserRequest  true   "User to create"
// @Success      201              {object}  outcomeResponse
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  outcomeResponse
// @Failure      422              {object}  outcomeResponse
// @Failure      500              {object}  outcomeResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	if _, err := ctxRole(c, h.service); err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return echo.NewHTTPError(http.StatusBadRequest, "idempotency key too long")
	}
	useIdem := h.idem != nil && key != ""

	if useIdem {
		id, found, err := h.idem.Lookup(ctx, key)
		if err != nil {
			// Degrade to a plain create; storage constraints still prevent duplicates.
			h.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		} else if found {
			c.Response().Header().Set("Idempotent-Replayed", "true")
			return c.JSON(http.StatusCreated, outcomeResponse{Success: true, Message: "user created successfully", ID: id})
		}
	}

	out := h.service.CreateUser(ctx, req.toInput())
	if out.Success && useIdem {
		if err := h.idem.Remember(ctx, key, out.ID); err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Int64("user_id", out.ID).Msg("idempotency remember failed")
		}
	}
	return c.JSON(outcomeStatus(out, http.StatusCreated), toOutcomeResponse(out))
}

// Update handles PUT /v1/users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "New field values"
// @Success      200   {object}  outcomeResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  outcomeResponse
// @Failure      409   {object}  outcomeResponse
// @Failure      422   {object}  outcomeResponse
// @Router       /v1/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	if _, err := ctxRole(c, h.service); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	out := h.service.UpdateUser(c.Request().Context(), req.toInput(id))
	return c.JSON(outcomeStatus(out, http.StatusOK), toOutcomeResponse(out))
}

// Delete handles DELETE /v1/users/:id. The user is deactivated, not removed.
//
// @Summary      Soft-delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  outcomeResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  outcomeResponse
// @Failure      409  {object}  outcomeResponse
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if _, err := ctxRole(c, h.service); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	out := h.service.DeleteUser(c.Request().Context(), id)
	return c.JSON(outcomeStatus(out, http.StatusOK), toOutcomeResponse(out))
}

// Reactivate handles POST /v1/users/:id/reactivate.
//
// @Summary      Reactivate a soft-deleted user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  outcomeResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  outcomeResponse
// @Failure      409  {object}  outcomeResponse
// @Router       /v1/users/{id}/reactivate [post]
func (h *UserHandler) Reactivate(c echo.Context) error {
	if _, err := ctxRole(c, h.service); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	out := h.service.ReactivateUser(c.Request().Context(), id)
	return c.JSON(outcomeStatus(out, http.StatusOK), toOutcomeResponse(out))
}

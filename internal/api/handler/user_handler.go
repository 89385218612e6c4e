package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atenas/admin-console/internal/api/metrics"
	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// UserHandler serves the admin user-management API. Routes are mounted
// behind the ADMIN guard.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required,oneof=ADMIN USER"`
}

// updateUserRequest leaves empty fields unchanged; an empty password keeps
// the current one.
type updateUserRequest struct {
	Name     string `json:"name"     validate:"omitempty,min=3"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=ADMIN USER"`
}

type listUsersResponse struct {
	Items []domain.User `json:"items"`
	Total int           `json:"total"`
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{Items: users, Total: len(users)})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	u, err := h.users.Create(c.Request().Context(), domain.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	metrics.UserMutationsTotal.WithLabelValues("create", metrics.ResultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	u, err := h.users.Update(c.Request().Context(), id, domain.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Role:     domain.Role(req.Role),
		Password: req.Password,
	})
	metrics.UserMutationsTotal.WithLabelValues("update", metrics.ResultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	err = h.users.Delete(c.Request().Context(), id)
	metrics.UserMutationsTotal.WithLabelValues("delete", metrics.ResultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

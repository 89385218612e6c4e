package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atenas/admin-console/internal/api/metrics"
	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type registerRequest struct {
	Name       string `json:"name"       validate:"required,min=2"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=6"`
	AgreeTerms bool   `json:"agreeTerms"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login authenticates a user and starts the console session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.Remember)
	metrics.LoginsTotal.WithLabelValues(metrics.ResultLabel(err), strconv.FormatBool(req.Remember)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, User: res.User})
}

// Register creates a USER account and signs it in for this process only.
// Terms are checked by the backend so that its error precedes the email
// check.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), domain.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		AgreeTerms: req.AgreeTerms,
	})
	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Token: res.Token, User: res.User})
}

// Logout ends the session. It succeeds when nobody is signed in.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := h.authService.CurrentUser()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, u)
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

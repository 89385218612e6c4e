package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// ViewSession is the read side of the session the views render from.
type ViewSession interface {
	Current() (domain.User, bool)
	IsAuthenticated() bool
	HasRole(role domain.Role) bool
}

// ViewHandler renders the console views as JSON documents. Access is
// decided by the guard middleware before these run.
type ViewHandler struct {
	session ViewSession
	users   ports.UserService
}

func NewViewHandler(session ViewSession, users ports.UserService) *ViewHandler {
	return &ViewHandler{session: session, users: users}
}

type viewResponse struct {
	View          string        `json:"view"`
	Authenticated bool          `json:"authenticated"`
	User          *domain.User  `json:"user,omitempty"`
	IsAdmin       bool          `json:"isAdmin"`
	Users         []domain.User `json:"users,omitempty"`
}

func (h *ViewHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, h.base("login"))
}

func (h *ViewHandler) Register(c echo.Context) error {
	return c.JSON(http.StatusOK, h.base("register"))
}

func (h *ViewHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.base("dashboard"))
}

func (h *ViewHandler) Users(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := h.base("users")
	resp.Users = users
	return c.JSON(http.StatusOK, resp)
}

// Handlers maps view paths to their handlers.
func (h *ViewHandler) Handlers() map[string]echo.HandlerFunc {
	return map[string]echo.HandlerFunc{
		"/login":     h.Login,
		"/register":  h.Register,
		"/dashboard": h.Dashboard,
		"/users":     h.Users,
	}
}

func (h *ViewHandler) base(view string) viewResponse {
	resp := viewResponse{View: view, Authenticated: h.session.IsAuthenticated()}
	if u, ok := h.session.Current(); ok && resp.Authenticated {
		resp.User = u.Clone()
		resp.IsAdmin = h.session.HasRole(domain.RoleAdmin)
	}
	return resp
}

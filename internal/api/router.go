package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/api/handler"
	"github.com/atenas/admin-console/internal/api/middleware"
	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
	"github.com/atenas/admin-console/internal/guard"
)

// Session is the console's view of the session manager.
type Session interface {
	middleware.Session
	handler.ViewSession
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Session Session
	Auth    ports.AuthService
	Users   ports.UserService
	Health  map[string]handler.Pinger
	Log     zerolog.Logger
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(metricsMiddleware(d.Registry))

	// --- Health probes and metrics (no guard) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", metricsHandler(d.Registry))

	// --- Console views ---
	views := handler.NewViewHandler(d.Session, d.Users).Handlers()
	for _, r := range guard.Routes() {
		h, ok := views[r.Path]
		if !ok {
			continue
		}
		e.GET(r.Path, h, middleware.View(d.Session, r.Gates...))
	}
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, guard.LoginRoute)
	})

	// --- Auth API ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, middleware.API(d.Session, guard.Authenticated()))

	// --- User management API (ADMIN only) ---
	userHandler := handler.NewUserHandler(d.Users)
	users := e.Group("/api/users", middleware.API(d.Session, guard.Authenticated(), guard.Role(domain.RoleAdmin)))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// Unknown views fall back to the login view; unknown API paths are 404.
	e.RouteNotFound("/*", func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			return echo.ErrNotFound
		}
		return c.Redirect(http.StatusFound, guard.LoginRoute)
	})

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: "atenas",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atenas/admin-console/internal/api/metrics"
	"github.com/atenas/admin-console/internal/guard"
)

// Session is what the guard middleware needs from the session manager.
type Session interface {
	guard.Session
	// ExpireIfStale signs the user out when the token has expired.
	ExpireIfStale(ctx context.Context) bool
}

// View protects a console view. A denied visitor is redirected: to the login
// view when signed out, to the dashboard when a role is missing.
func View(s Session, gates ...guard.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := evaluate(c, s, gates)
			if !d.Allowed {
				return c.Redirect(http.StatusFound, d.Redirect)
			}
			return next(c)
		}
	}
}

// API protects a JSON endpoint: 401 when signed out, 403 when a role is
// missing.
func API(s Session, gates ...guard.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := evaluate(c, s, gates)
			if !d.Allowed {
				if d.Failed == guard.Authenticated() {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}

func evaluate(c echo.Context, s Session, gates []guard.Gate) guard.Decision {
	if len(gates) > 0 {
		s.ExpireIfStale(c.Request().Context())
	}
	d := guard.Evaluate(s, gates...)

	gate := "none"
	if !d.Allowed {
		gate = d.Failed.String()
	}
	metrics.GuardDecisionsTotal.WithLabelValues(gate, strconv.FormatBool(d.Allowed)).Inc()
	return d
}

// Package guard decides whether a view may be entered given the current
// session. Guards read the session at evaluation time and keep no state.
package guard

import "github.com/atenas/admin-console/internal/core/domain"

const (
	// LoginRoute is where unauthenticated visitors are sent.
	LoginRoute = "/login"
	// DefaultRoute is the safe landing view for signed-in users who lack a
	// required role.
	DefaultRoute = "/dashboard"
)

// Session is what the guards need to know about the current identity.
type Session interface {
	IsAuthenticated() bool
	HasRole(role domain.Role) bool
}

// Gate is one requirement of a protected view.
type Gate struct {
	role domain.Role // empty for the authentication gate
}

// Authenticated requires a signed-in user.
func Authenticated() Gate { return Gate{} }

// Role requires a signed-in user with role.
func Role(role domain.Role) Gate { return Gate{role: role} }

func (g Gate) String() string {
	if g.role == "" {
		return "authenticated"
	}
	return "role=" + string(g.role)
}

// Decision is the outcome of evaluating the gates of a view.
type Decision struct {
	Allowed  bool
	Redirect string // set when Allowed is false
	Failed   Gate   // the gate that denied entry
}

// RequireAuthenticated lets the visitor in when signed in and redirects to
// the login view otherwise.
func RequireAuthenticated(s Session) Decision {
	if s.IsAuthenticated() {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginRoute, Failed: Authenticated()}
}

// RequireRole first applies RequireAuthenticated, then checks role. A
// signed-in user without role is sent to the default view.
func RequireRole(s Session, role domain.Role) Decision {
	if d := RequireAuthenticated(s); !d.Allowed {
		return d
	}
	if s.HasRole(role) {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: DefaultRoute, Failed: Role(role)}
}

// Evaluate applies gates in order. Any role gate implies the authentication
// gate, which is always checked first.
func Evaluate(s Session, gates ...Gate) Decision {
	if len(gates) == 0 {
		return Decision{Allowed: true}
	}
	if d := RequireAuthenticated(s); !d.Allowed {
		return d
	}
	for _, g := range gates {
		if g.role == "" {
			continue
		}
		if d := RequireRole(s, g.role); !d.Allowed {
			return d
		}
	}
	return Decision{Allowed: true}
}

// Route is a view and the gates it declares.
type Route struct {
	Path  string
	Gates []Gate
}

// Routes is the console's view table. Paths not listed here fall back to
// LoginRoute.
func Routes() []Route {
	return []Route{
		{Path: "/login"},
		{Path: "/register"},
		{Path: "/dashboard", Gates: []Gate{Authenticated()}},
		{Path: "/users", Gates: []Gate{Authenticated(), Role(domain.RoleAdmin)}},
	}
}

package ports

import (
	"context"

	"github.com/atenas/admin-console/internal/core/domain"
)

// Session is the subset of the session manager the services drive.
type Session interface {
	SetAuthData(ctx context.Context, result domain.AuthResult, persistent bool) error
	Logout(ctx context.Context)
	Current() (domain.User, bool)
}

package ports

import (
	"context"

	"github.com/atenas/admin-console/internal/core/domain"
)

// AuthService is the login/register/logout surface used by the console and
// the CLI.
type AuthService interface {
	Login(ctx context.Context, email, password string, remember bool) (domain.AuthResult, error)
	Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error)
	Logout(ctx context.Context) error
	CurrentUser() (domain.User, bool)
}

// UserService is the admin user-management surface.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

package ports

import (
	"context"

	"github.com/atenas/admin-console/internal/core/domain"
)

// RecordStore is the whole contract between the application and its user
// backend. Implementations own the user records and their credentials and
// only ever return copies.
type RecordStore interface {
	Login(ctx context.Context, email, password string) (domain.AuthResult, error)
	Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error)

	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)

	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

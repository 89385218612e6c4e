package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// UserService backs the admin user-management view. Role checks happen in
// the guards before these methods are reached.
type UserService struct {
	backend ports.RecordStore
	session ports.Session
	log     zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(backend ports.RecordStore, session ports.Session, log zerolog.Logger) *UserService {
	return &UserService{backend: backend, session: session, log: log}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.backend.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// Create adds a user. The role must be ADMIN or USER; anything else is
// rejected before the backend is called.
func (s *UserService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("create user: role %q: %w", in.Role, domain.ErrInvalidRole)
	}
	u, err := s.backend.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update changes the non-empty fields of user id. An empty role keeps the
// current one.
func (s *UserService) Update(ctx context.Context, id int64, in domain.UserUpdate) (*domain.User, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, fmt.Errorf("update user %d: role %q: %w", id, in.Role, domain.ErrInvalidRole)
	}
	u, err := s.backend.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}

// Delete removes a user other than the signed-in one. The backend is not
// touched when id is the current user's.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if cur, ok := s.session.Current(); ok && cur.ID == id {
		s.log.Warn().Int64("user_id", id).Msg("refused to delete the signed-in user")
		return domain.ErrSelfDelete
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

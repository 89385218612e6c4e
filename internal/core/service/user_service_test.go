package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
)

func TestUserService_DeleteRefusesCurrentUser(t *testing.T) {
	admin := domain.User{ID: 1, Email: "admin@atenas.com", Role: domain.RoleAdmin}
	store := &stubRecordStore{
		deleteFn: func(context.Context, int64) error {
			t.Fatalf("backend must not be called")
			return nil
		},
	}
	svc := NewUserService(store, &stubSession{current: &admin}, zerolog.Nop())

	err := svc.Delete(context.Background(), 1)
	if err != domain.ErrSelfDelete {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if !domain.IsAuthError(err) {
		t.Fatalf("self delete must be an auth error")
	}
}

func TestUserService_DeleteOther(t *testing.T) {
	admin := domain.User{ID: 1, Role: domain.RoleAdmin}
	var deleted int64
	store := &stubRecordStore{
		deleteFn: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	svc := NewUserService(store, &stubSession{current: &admin}, zerolog.Nop())

	if err := svc.Delete(context.Background(), 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected id 2 deleted, got %d", deleted)
	}
}

func TestUserService_WrapsNotFound(t *testing.T) {
	store := &stubRecordStore{
		findFn: func(context.Context, int64) (*domain.User, error) { return nil, domain.ErrUserNotFound },
		updateFn: func(context.Context, int64, domain.UserUpdate) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		deleteFn: func(context.Context, int64) error { return domain.ErrUserNotFound },
	}
	svc := NewUserService(store, &stubSession{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Get(ctx, 9); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := svc.Update(ctx, 9, domain.UserUpdate{Name: "x"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("update: expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, 9); !domain.IsNotFound(err) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
}

func TestUserService_CreateRejectsInvalidRole(t *testing.T) {
	store := &stubRecordStore{
		createFn: func(context.Context, domain.UserInput) (*domain.User, error) {
			t.Fatalf("backend must not be called")
			return nil, nil
		},
	}
	svc := NewUserService(store, &stubSession{}, zerolog.Nop())

	for _, role := range []domain.Role{"", "ROOT", "admin"} {
		_, err := svc.Create(context.Background(), domain.UserInput{Name: "Bia", Email: "bia@x.com", Password: "secret1", Role: role})
		if !errors.Is(err, domain.ErrInvalidRole) {
			t.Fatalf("role %q: expected ErrInvalidRole, got %v", role, err)
		}
	}
}

func TestUserService_CreateKeepsValidRole(t *testing.T) {
	store := &stubRecordStore{
		createFn: func(_ context.Context, in domain.UserInput) (*domain.User, error) {
			return &domain.User{ID: 3, Name: in.Name, Email: in.Email, Role: in.Role}, nil
		},
	}
	svc := NewUserService(store, &stubSession{}, zerolog.Nop())

	u, err := svc.Create(context.Background(), domain.UserInput{Name: "Bia", Email: "bia@x.com", Password: "secret1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN role, got %s", u.Role)
	}
}

func TestUserService_UpdateRejectsInvalidRole(t *testing.T) {
	called := false
	store := &stubRecordStore{
		updateFn: func(_ context.Context, id int64, in domain.UserUpdate) (*domain.User, error) {
			called = true
			return &domain.User{ID: id, Role: domain.RoleUser}, nil
		},
	}
	svc := NewUserService(store, &stubSession{}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 2, domain.UserUpdate{Role: "ROOT"})
	if !errors.Is(err, domain.ErrInvalidRole) || called {
		t.Fatalf("expected ErrInvalidRole without backend call, got %v (called=%v)", err, called)
	}

	if _, err := svc.Update(context.Background(), 2, domain.UserUpdate{Name: "Renamed"}); err != nil {
		t.Fatalf("update without role: %v", err)
	}
	if !called {
		t.Fatalf("expected backend call")
	}
}

func TestUserService_List(t *testing.T) {
	store := &stubRecordStore{
		listFn: func(context.Context) ([]domain.User, error) {
			return []domain.User{{ID: 1}, {ID: 2}}, nil
		},
	}
	svc := NewUserService(store, &stubSession{}, zerolog.Nop())

	users, err := svc.List(context.Background())
	if err != nil || len(users) != 2 {
		t.Fatalf("unexpected list result: %v %v", users, err)
	}
}

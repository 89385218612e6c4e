// Package storetest checks the behaviour every ports.RecordStore backend
// shares. Backends run it from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// Seed accounts every opened store must hold, and nothing else.
const (
	AdminEmail    = "admin@atenas.com"
	AdminPassword = "admin123"
	UserEmail     = "user@atenas.com"
	UserPassword  = "user123"
)

// Opener returns a fresh store seeded with the admin (id 1) and user (id 2)
// accounts.
type Opener func(t *testing.T) ports.RecordStore

// Run runs the record store contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s ports.RecordStore)
	}{
		{"LoginSeedAccount", loginSeedAccount},
		{"LoginFailsUniformly", loginFailsUniformly},
		{"RegisterChecksTermsFirst", registerChecksTermsFirst},
		{"RegisterAssignsMaxPlusOne", registerAssignsMaxPlusOne},
		{"CreateKeepsRole", createKeepsRole},
		{"UpdateErrors", updateErrors},
		{"UpdatePasswordOnlyWhenProvided", updatePasswordOnlyWhenProvided},
		{"DeleteAbsent", deleteAbsent},
		{"ListOrderedByID", listOrderedByID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

func loginSeedAccount(t *testing.T, s ports.RecordStore) {
	res, err := s.Login(context.Background(), AdminEmail, AdminPassword)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.User.ID)
	require.Equal(t, domain.RoleAdmin, res.User.Role)
	require.NotEmpty(t, res.Token)
}

func loginFailsUniformly(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	_, unknownErr := s.Login(ctx, "ghost@atenas.com", AdminPassword)
	_, wrongErr := s.Login(ctx, AdminEmail, "wrong-password")

	require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func registerChecksTermsFirst(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	_, err := s.Register(ctx, domain.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrTermsNotAccepted)

	// A taken email still reports the terms.
	_, err = s.Register(ctx, domain.RegisterInput{Name: "Dup", Email: AdminEmail, Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrTermsNotAccepted)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func registerAssignsMaxPlusOne(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 1))
	res, err := s.Register(ctx, domain.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1", AgreeTerms: true})
	require.NoError(t, err)
	require.Equal(t, domain.User{ID: 3, Name: "Ana", Email: "ana@x.com", Role: domain.RoleUser}, res.User)
	require.NotEmpty(t, res.Token)

	_, err = s.Register(ctx, domain.RegisterInput{Name: "Ana 2", Email: "ana@x.com", Password: "other1", AgreeTerms: true})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = s.Login(ctx, "ana@x.com", "secret1")
	require.NoError(t, err)
}

func createKeepsRole(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	u, err := s.Create(ctx, domain.UserInput{Name: "Carla", Email: "carla@x.com", Password: "carla1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, int64(3), u.ID)
	require.Equal(t, domain.RoleAdmin, u.Role)

	_, err = s.Create(ctx, domain.UserInput{Name: "Again", Email: "carla@x.com", Password: "again1", Role: domain.RoleUser})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	res, err := s.Login(ctx, "carla@x.com", "carla1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, res.User.Role)
}

func updateErrors(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	_, err := s.Update(ctx, 99, domain.UserUpdate{Name: "Nobody"})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.Update(ctx, 2, domain.UserUpdate{Email: AdminEmail})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	u, err := s.FindByID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, UserEmail, u.Email)

	_, err = s.Update(ctx, 2, domain.UserUpdate{Email: UserEmail, Role: domain.RoleAdmin})
	require.NoError(t, err)
}

func updatePasswordOnlyWhenProvided(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	_, err := s.Update(ctx, 2, domain.UserUpdate{Name: "Renamed"})
	require.NoError(t, err)
	_, err = s.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)

	_, err = s.Update(ctx, 2, domain.UserUpdate{Email: "moved@x.com", Password: "fresh1"})
	require.NoError(t, err)
	_, err = s.Login(ctx, "moved@x.com", UserPassword)
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = s.Login(ctx, "moved@x.com", "fresh1")
	require.NoError(t, err)
}

func deleteAbsent(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	require.ErrorIs(t, s.Delete(ctx, 42), domain.ErrUserNotFound)
	require.NoError(t, s.Delete(ctx, 2))
	require.ErrorIs(t, s.Delete(ctx, 2), domain.ErrUserNotFound)

	_, err := s.FindByID(ctx, 2)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.Login(ctx, UserEmail, UserPassword)
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func listOrderedByID(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	_, err := s.Create(ctx, domain.UserInput{Name: "Dora", Email: "dora@x.com", Password: "dora12", Role: domain.RoleUser})
	require.NoError(t, err)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i, u := range users {
		require.Equal(t, int64(i+1), u.ID)
	}
}

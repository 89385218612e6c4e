package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// AuthService signs users in and out: it asks the backend, then hands the
// result to the session.
type AuthService struct {
	backend ports.RecordStore
	session ports.Session
	log     zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(backend ports.RecordStore, session ports.Session, log zerolog.Logger) *AuthService {
	return &AuthService{backend: backend, session: session, log: log}
}

// Login checks the credentials and starts a session. remember keeps the
// session across restarts.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (domain.AuthResult, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if err := s.session.SetAuthData(ctx, res, remember); err != nil {
		return domain.AuthResult{}, fmt.Errorf("login: %w", err)
	}
	s.log.Info().Int64("user_id", res.User.ID).Bool("remember", remember).Msg("login succeeded")
	return res, nil
}

// Register creates the account and signs it in for the current process
// only.
func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error) {
	res, err := s.backend.Register(ctx, in)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if err := s.session.SetAuthData(ctx, res, false); err != nil {
		return domain.AuthResult{}, fmt.Errorf("register: %w", err)
	}
	return res, nil
}

// Logout ends the current session. It always succeeds.
func (s *AuthService) Logout(ctx context.Context) error {
	s.session.Logout(ctx)
	return nil
}

// CurrentUser returns the signed-in user.
func (s *AuthService) CurrentUser() (domain.User, bool) {
	return s.session.Current()
}

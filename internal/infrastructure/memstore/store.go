// Package memstore is the in-memory user backend: a list of user records and
// a side-table of credentials keyed by email.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
)

// TokenIssuer mints the token returned by Login and Register.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

// Verifier turns passwords into stored credentials and checks them.
type Verifier interface {
	Hash(password string) (string, error)
	Matches(verifier, password string) bool
}

// SeedUser is an account present when the store is created.
type SeedUser struct {
	User     domain.User
	Password string
}

// DefaultSeed returns the two accounts the console ships with.
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{User: domain.User{ID: 1, Name: "Administrador", Email: "admin@atenas.com", Role: domain.RoleAdmin}, Password: "admin123"},
		{User: domain.User{ID: 2, Name: "Usuário Teste", Email: "user@atenas.com", Role: domain.RoleUser}, Password: "user123"},
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLatency sets the artificial delay of every operation.
func WithLatency(l Latency) Option {
	return func(s *Store) { s.latency = l }
}

// Store implements ports.RecordStore in memory.
//
// mu guards users and credentials together: every operation that touches one
// touches the other inside the same critical section, so a record never
// exists without its credential or the other way round.
type Store struct {
	issuer   TokenIssuer
	verifier Verifier
	latency  Latency
	log      zerolog.Logger

	mu          sync.Mutex
	users       []domain.User     // insertion order
	credentials map[string]string // email -> verifier
}

var _ ports.RecordStore = (*Store)(nil)

// New builds a Store holding seed. Latency defaults to zero.
func New(issuer TokenIssuer, verifier Verifier, log zerolog.Logger, seed []SeedUser, opts ...Option) (*Store, error) {
	s := &Store{
		issuer:      issuer,
		verifier:    verifier,
		log:         log,
		credentials: make(map[string]string, len(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, su := range seed {
		if _, exists := s.credentials[su.User.Email]; exists {
			return nil, fmt.Errorf("seed %s: %w", su.User.Email, domain.ErrEmailExists)
		}
		hash, err := verifier.Hash(su.Password)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", su.User.Email, err)
		}
		s.users = append(s.users, su.User)
		s.credentials[su.User.Email] = hash
	}
	return s, nil
}

// Login checks email and password. Unknown email and wrong password fail
// with the same error.
func (s *Store) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	return simulate(ctx, s.latency.Login, func() (domain.AuthResult, error) {
		s.mu.Lock()
		idx := s.indexByEmail(email)
		var user domain.User
		var stored string
		if idx >= 0 {
			user = s.users[idx]
			stored = s.credentials[email]
		}
		s.mu.Unlock()

		if !s.verifier.Matches(stored, password) {
			s.log.Debug().Msg("login rejected")
			return domain.AuthResult{}, domain.ErrInvalidCredentials
		}
		return s.authResult(user)
	})
}

// Register creates a USER account and logs it in.
func (s *Store) Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error) {
	return simulate(ctx, s.latency.Register, func() (domain.AuthResult, error) {
		if !in.AgreeTerms {
			return domain.AuthResult{}, domain.ErrTermsNotAccepted
		}
		hash, err := s.verifier.Hash(in.Password)
		if err != nil {
			return domain.AuthResult{}, fmt.Errorf("register: %w", err)
		}

		user, err := s.insert(domain.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser}, hash)
		if err != nil {
			return domain.AuthResult{}, err
		}
		s.log.Info().Int64("user_id", user.ID).Msg("user registered")
		return s.authResult(user)
	})
}

// FindByID returns a copy of the record with id.
func (s *Store) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return simulate(ctx, s.latency.Get, func() (*domain.User, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		idx := s.indexByID(id)
		if idx < 0 {
			return nil, domain.ErrUserNotFound
		}
		return s.users[idx].Clone(), nil
	})
}

// FindByEmail returns a copy of the record with email, matched exactly.
func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return simulate(ctx, s.latency.Get, func() (*domain.User, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		idx := s.indexByEmail(email)
		if idx < 0 {
			return nil, domain.ErrUserNotFound
		}
		return s.users[idx].Clone(), nil
	})
}

// List returns all records in insertion order. The slice is a fresh copy.
func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	return simulate(ctx, s.latency.List, func() ([]domain.User, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		out := make([]domain.User, len(s.users))
		copy(out, s.users)
		return out, nil
	})
}

// Create adds a record with the caller's role. Access control is the
// caller's concern.
func (s *Store) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	return simulate(ctx, s.latency.Create, func() (*domain.User, error) {
		hash, err := s.verifier.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		user, err := s.insert(domain.User{Name: in.Name, Email: in.Email, Role: in.Role}, hash)
		if err != nil {
			return nil, err
		}
		s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
		return user.Clone(), nil
	})
}

// Update applies the non-empty fields of in to the record with id. A new
// email re-keys the credential; a non-empty password replaces it.
func (s *Store) Update(ctx context.Context, id int64, in domain.UserUpdate) (*domain.User, error) {
	return simulate(ctx, s.latency.Update, func() (*domain.User, error) {
		var hash string
		if in.Password != "" {
			h, err := s.verifier.Hash(in.Password)
			if err != nil {
				return nil, fmt.Errorf("update user %d: %w", id, err)
			}
			hash = h
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		idx := s.indexByID(id)
		if idx < 0 {
			return nil, domain.ErrUserNotFound
		}

		updated := s.users[idx]
		oldEmail := updated.Email
		if in.Email != "" && in.Email != oldEmail {
			if s.indexByEmail(in.Email) >= 0 {
				return nil, domain.ErrEmailExists
			}
			updated.Email = in.Email
		}
		if in.Name != "" {
			updated.Name = in.Name
		}
		if in.Role != "" {
			updated.Role = in.Role
		}

		s.users[idx] = updated
		if updated.Email != oldEmail {
			s.credentials[updated.Email] = s.credentials[oldEmail]
			delete(s.credentials, oldEmail)
		}
		if hash != "" {
			s.credentials[updated.Email] = hash
		}

		s.log.Info().Int64("user_id", id).Bool("email_changed", updated.Email != oldEmail).Msg("user updated")
		return updated.Clone(), nil
	})
}

// Delete removes the record with id and its credential.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := simulate(ctx, s.latency.Delete, func() (struct{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		idx := s.indexByID(id)
		if idx < 0 {
			return struct{}{}, domain.ErrUserNotFound
		}
		email := s.users[idx].Email
		s.users = append(s.users[:idx], s.users[idx+1:]...)
		delete(s.credentials, email)

		s.log.Info().Int64("user_id", id).Msg("user deleted")
		return struct{}{}, nil
	})
	return err
}

// insert appends user with the next id and stores its credential.
func (s *Store) insert(user domain.User, hash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByEmail(user.Email) >= 0 {
		return domain.User{}, domain.ErrEmailExists
	}
	user.ID = s.nextID()
	s.users = append(s.users, user)
	s.credentials[user.Email] = hash
	return user, nil
}

func (s *Store) authResult(user domain.User) (domain.AuthResult, error) {
	tok, err := s.issuer.Issue(user)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Token: tok, User: user}, nil
}

// nextID is max(existing ids, 0) + 1. Callers hold mu.
func (s *Store) nextID() int64 {
	var highest int64
	for _, u := range s.users {
		if u.ID > highest {
			highest = u.ID
		}
	}
	return highest + 1
}

func (s *Store) indexByID(id int64) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByEmail(email string) int {
	for i, u := range s.users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

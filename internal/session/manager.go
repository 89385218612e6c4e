// Package session owns the identity of the running console: which user is
// signed in, with which token, and in which storage tier it is kept.
//
// A Manager is constructed explicitly and passed to whoever needs it; there
// is no package-level session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
	"github.com/atenas/admin-console/internal/token"
)

// Storage keys used in both tiers.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Identity is the published session state.
type Identity struct {
	User          domain.User
	Authenticated bool
}

// RestoreOutcome describes what Restore found in storage.
type RestoreOutcome string

const (
	RestoreRestored RestoreOutcome = "restored"
	RestoreAbsent   RestoreOutcome = "absent"
	RestoreExpired  RestoreOutcome = "expired"
	RestoreInvalid  RestoreOutcome = "invalid"
)

// TokenDecoder is the part of the token codec the session needs.
type TokenDecoder interface {
	Decode(raw string) (*token.Claims, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager holds the current identity and keeps it in sync with storage.
//
// Subscribers and logout listeners run while a transition is in progress and
// must not start another transition (SetAuthData, Restore, Logout) from the
// callback itself.
type Manager struct {
	decoder TokenDecoder
	tiers   map[ports.Tier]ports.SessionStorage
	now     func() time.Time
	log     zerolog.Logger

	// transition serializes state changes so storage and publication happen
	// in the same order for every caller.
	transition sync.Mutex

	mu     sync.RWMutex
	token  string
	claims *token.Claims
	tier   ports.Tier
	user   *domain.User

	identity *Observable[Identity]

	hooksMu    sync.Mutex
	hooks      map[uint64]func()
	nextHookID uint64
}

// NewManager returns a signed-out Manager over the two tiers.
func NewManager(decoder TokenDecoder, persistent, ephemeral ports.SessionStorage, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		decoder: decoder,
		tiers: map[ports.Tier]ports.SessionStorage{
			ports.TierPersistent: persistent,
			ports.TierEphemeral:  ephemeral,
		},
		now:      time.Now,
		log:      log,
		identity: NewObservable(Identity{}),
		hooks:    make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAuthData stores result in the persistent tier when persistent is true,
// in the ephemeral tier otherwise, clears the other tier and then publishes
// the new identity. Nothing is published when the write fails.
func (m *Manager) SetAuthData(ctx context.Context, result domain.AuthResult, persistent bool) error {
	claims, err := m.decoder.Decode(result.Token)
	if err != nil {
		return fmt.Errorf("set auth data: %w", err)
	}
	blob, err := json.Marshal(result.User)
	if err != nil {
		return fmt.Errorf("set auth data: encode user: %w", err)
	}

	target, other := ports.TierEphemeral, ports.TierPersistent
	if persistent {
		target, other = other, target
	}

	m.transition.Lock()
	defer m.transition.Unlock()

	store := m.tiers[target]
	if err := store.Set(ctx, KeyToken, result.Token); err != nil {
		return fmt.Errorf("set auth data: %w", err)
	}
	if err := store.Set(ctx, KeyUser, string(blob)); err != nil {
		_ = m.clearTier(ctx, target)
		return fmt.Errorf("set auth data: %w", err)
	}
	if err := m.clearTier(ctx, other); err != nil {
		m.log.Warn().Err(err).Str("tier", string(other)).Msg("failed to clear previous session tier")
	}

	user := result.User
	m.mu.Lock()
	m.token = result.Token
	m.claims = claims
	m.tier = target
	m.user = &user
	m.mu.Unlock()

	m.log.Info().Int64("user_id", user.ID).Str("tier", string(target)).Msg("session started")
	m.identity.Set(Identity{User: user, Authenticated: true})
	return nil
}

// Restore loads a previously stored session. The persistent tier is read
// first, then the ephemeral one. A token that cannot be decoded, an expired
// token or an unreadable user blob leaves the Manager signed out and wipes
// both tiers.
func (m *Manager) Restore(ctx context.Context) RestoreOutcome {
	m.transition.Lock()
	defer m.transition.Unlock()

	tier, raw, found := m.findToken(ctx)
	if !found {
		// A user blob may outlive its token, e.g. after a failed write.
		m.discard(ctx)
		return RestoreAbsent
	}

	claims, err := m.decoder.Decode(raw)
	if err != nil {
		m.log.Warn().Err(err).Str("tier", string(tier)).Msg("discarding undecodable session")
		m.discard(ctx)
		return RestoreInvalid
	}
	if err := token.CheckExpiry(claims, m.now()); err != nil {
		m.log.Info().Err(err).Int64("user_id", claims.Subject).Msg("discarding expired session")
		m.discard(ctx)
		return RestoreExpired
	}

	blob, ok, err := m.tiers[tier].Get(ctx, KeyUser)
	if err != nil || !ok {
		m.log.Warn().Err(err).Str("tier", string(tier)).Msg("session token without user")
		m.discard(ctx)
		return RestoreInvalid
	}
	var user domain.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		m.log.Warn().Err(err).Str("tier", string(tier)).Msg("discarding unreadable session user")
		m.discard(ctx)
		return RestoreInvalid
	}

	m.mu.Lock()
	m.token = raw
	m.claims = claims
	m.tier = tier
	m.user = &user
	m.mu.Unlock()

	m.log.Info().Int64("user_id", user.ID).Str("tier", string(tier)).Msg("session restored")
	m.identity.Set(Identity{User: user, Authenticated: true})
	return RestoreRestored
}

// Logout wipes both tiers, publishes the signed-out identity and notifies
// logout listeners. Storage errors are logged, never returned: the in-memory
// state is signed out regardless.
func (m *Manager) Logout(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.logout(ctx)
}

// ExpireIfStale logs out when the current token has expired and reports
// whether it did.
func (m *Manager) ExpireIfStale(ctx context.Context) bool {
	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.RLock()
	signedIn, claims := m.user != nil, m.claims
	m.mu.RUnlock()
	if !signedIn {
		return false
	}
	err := token.CheckExpiry(claims, m.now())
	if err == nil {
		return false
	}
	m.log.Info().Err(err).Msg("session token expired")
	m.logout(ctx)
	return true
}

// Current returns a copy of the signed-in user.
func (m *Manager) Current() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

// IsAuthenticated reports whether a user is signed in with a token that has
// not expired yet.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && !token.IsExpired(m.claims, m.now())
}

// HasRole reports whether the signed-in user has role. It is false when
// nobody is signed in.
func (m *Manager) HasRole(role domain.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Role == role
}

// Token returns the bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Tier reports which tier holds the current session.
func (m *Manager) Tier() (ports.Tier, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tier, m.user != nil
}

// Subscribe registers fn for identity changes; fn is called at once with
// the current identity.
func (m *Manager) Subscribe(fn func(Identity)) (cancel func()) {
	return m.identity.Subscribe(fn)
}

// Watch streams the latest identity until ctx ends.
func (m *Manager) Watch(ctx context.Context) <-chan Identity {
	return m.identity.Watch(ctx)
}

// OnLogout registers fn to run after every logout, once the signed-out
// identity has been published. Listeners use it to navigate to the login
// view.
func (m *Manager) OnLogout(fn func()) (cancel func()) {
	m.hooksMu.Lock()
	id := m.nextHookID
	m.nextHookID++
	m.hooks[id] = fn
	m.hooksMu.Unlock()

	return func() {
		m.hooksMu.Lock()
		delete(m.hooks, id)
		m.hooksMu.Unlock()
	}
}

func (m *Manager) logout(ctx context.Context) {
	var userID int64
	if u, ok := m.Current(); ok {
		userID = u.ID
	}

	m.discard(ctx)
	m.log.Info().Int64("user_id", userID).Msg("session ended")

	m.hooksMu.Lock()
	hooks := make([]func(), 0, len(m.hooks))
	for _, fn := range m.hooks {
		hooks = append(hooks, fn)
	}
	m.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// discard wipes both tiers and publishes the signed-out identity.
func (m *Manager) discard(ctx context.Context) {
	var errs []error
	for _, t := range []ports.Tier{ports.TierPersistent, ports.TierEphemeral} {
		if err := m.clearTier(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear session storage")
	}
	m.reset()
}

// reset drops the in-memory session and publishes the signed-out identity.
func (m *Manager) reset() {
	m.mu.Lock()
	m.token = ""
	m.claims = nil
	m.tier = ""
	m.user = nil
	m.mu.Unlock()

	m.identity.Set(Identity{})
}

func (m *Manager) clearTier(ctx context.Context, t ports.Tier) error {
	store := m.tiers[t]
	tokenErr := store.Remove(ctx, KeyToken)
	userErr := store.Remove(ctx, KeyUser)
	if err := errors.Join(tokenErr, userErr); err != nil {
		return fmt.Errorf("clear %s tier: %w", t, err)
	}
	return nil
}

func (m *Manager) findToken(ctx context.Context) (ports.Tier, string, bool) {
	for _, t := range []ports.Tier{ports.TierPersistent, ports.TierEphemeral} {
		raw, ok, err := m.tiers[t].Get(ctx, KeyToken)
		if err != nil {
			m.log.Warn().Err(err).Str("tier", string(t)).Msg("failed to read session tier")
			continue
		}
		if ok && raw != "" {
			return t, raw, true
		}
	}
	return "", "", false
}

package session

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
	"github.com/atenas/admin-console/internal/infrastructure/storage"
	"github.com/atenas/admin-console/internal/token"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	clock      *clock
	codec      *token.Codec
	persistent *storage.Memory
	ephemeral  *storage.Memory
	manager    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: t0}
	f := &fixture{
		clock:      c,
		codec:      token.NewCodec(c.Now),
		persistent: storage.NewMemory(),
		ephemeral:  storage.NewMemory(),
	}
	f.manager = NewManager(f.codec, f.persistent, f.ephemeral, zerolog.Nop(), WithClock(c.Now))
	return f
}

func (f *fixture) authResult(t *testing.T, u domain.User) domain.AuthResult {
	t.Helper()
	raw, err := f.codec.Issue(u)
	require.NoError(t, err)
	return domain.AuthResult{Token: raw, User: u}
}

var admin = domain.User{ID: 1, Name: "Administrador", Email: "admin@atenas.com", Role: domain.RoleAdmin}

// failingStorage fails every write.
type failingStorage struct{ *storage.Memory }

func (failingStorage) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

// userWriteFails accepts the token and fails the user blob.
type userWriteFails struct{ *storage.Memory }

func (s userWriteFails) Set(ctx context.Context, key, value string) error {
	if key == KeyUser {
		return errors.New("disk full")
	}
	return s.Memory.Set(ctx, key, value)
}

func TestManager_ColdStartIsSignedOut(t *testing.T) {
	f := newFixture(t)

	_, ok := f.manager.Current()
	require.False(t, ok)
	require.False(t, f.manager.IsAuthenticated())
	require.Empty(t, f.manager.Token())
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		require.False(t, f.manager.HasRole(r))
	}
}

func TestManager_SetAuthDataSelectsTier(t *testing.T) {
	ctx := context.Background()

	t.Run("persistent", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ephemeral.Set(ctx, KeyToken, "stale"))

		require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), true))

		require.Equal(t, 2, f.persistent.Len())
		require.Equal(t, 0, f.ephemeral.Len())
		tier, ok := f.manager.Tier()
		require.True(t, ok)
		require.Equal(t, ports.TierPersistent, tier)
	})

	t.Run("ephemeral", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.persistent.Set(ctx, KeyUser, "stale"))

		require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), false))

		require.Equal(t, 0, f.persistent.Len())
		require.Equal(t, 2, f.ephemeral.Len())
	})
}

func TestManager_SetAuthDataPublishesAfterPersisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen []Identity
	f.manager.Subscribe(func(id Identity) {
		if id.Authenticated {
			raw, ok, err := f.persistent.Get(ctx, KeyToken)
			require.NoError(t, err)
			require.True(t, ok, "subscriber notified before storage was written")
			require.NotEmpty(t, raw)
		}
		seen = append(seen, id)
	})

	res := f.authResult(t, admin)
	require.NoError(t, f.manager.SetAuthData(ctx, res, true))

	require.Len(t, seen, 2)
	require.False(t, seen[0].Authenticated)
	require.Equal(t, Identity{User: admin, Authenticated: true}, seen[1])

	cur, ok := f.manager.Current()
	require.True(t, ok)
	require.Equal(t, admin, cur)
	require.Equal(t, res.Token, f.manager.Token())
	require.True(t, f.manager.IsAuthenticated())
	require.True(t, f.manager.HasRole(domain.RoleAdmin))
	require.False(t, f.manager.HasRole(domain.RoleUser))
}

func TestManager_SetAuthDataWriteFailurePublishesNothing(t *testing.T) {
	c := &clock{now: t0}
	codec := token.NewCodec(c.Now)
	m := NewManager(codec, &failingStorage{Memory: storage.NewMemory()}, storage.NewMemory(), zerolog.Nop(), WithClock(c.Now))

	calls := 0
	m.Subscribe(func(Identity) { calls++ })

	raw, err := codec.Issue(admin)
	require.NoError(t, err)
	err = m.SetAuthData(context.Background(), domain.AuthResult{Token: raw, User: admin}, true)
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.False(t, m.IsAuthenticated())
}

func TestManager_SetAuthDataRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	err := f.manager.SetAuthData(context.Background(), domain.AuthResult{Token: "garbage", User: admin}, false)
	require.True(t, domain.IsDecodeError(err))
	require.Equal(t, 0, f.ephemeral.Len())
}

func TestManager_SessionIsASnapshot(t *testing.T) {
	f := newFixture(t)
	res := f.authResult(t, admin)
	require.NoError(t, f.manager.SetAuthData(context.Background(), res, false))

	res.User.Name = "Changed later"
	cur, _ := f.manager.Current()
	require.Equal(t, "Administrador", cur.Name)

	cur.Role = domain.RoleUser
	require.True(t, f.manager.HasRole(domain.RoleAdmin))
}

func TestManager_RestoreAcrossRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), true))

	// A new process sees only the persistent tier.
	restarted := NewManager(f.codec, f.persistent, storage.NewMemory(), zerolog.Nop(), WithClock(f.clock.Now))
	require.Equal(t, RestoreRestored, restarted.Restore(ctx))

	cur, ok := restarted.Current()
	require.True(t, ok)
	require.Equal(t, admin, cur)
	require.True(t, restarted.IsAuthenticated())
}

func TestManager_RestoreEphemeralFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), false))

	again := NewManager(f.codec, f.persistent, f.ephemeral, zerolog.Nop(), WithClock(f.clock.Now))
	require.Equal(t, RestoreRestored, again.Restore(ctx))
	tier, _ := again.Tier()
	require.Equal(t, ports.TierEphemeral, tier)
}

func TestManager_RestoreUsesStoredUserBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.authResult(t, admin)
	require.NoError(t, f.persistent.Set(ctx, KeyToken, res.Token))
	require.NoError(t, f.persistent.Set(ctx, KeyUser, `{"id":1,"name":"Cached Name","email":"admin@atenas.com","role":"ADMIN"}`))

	require.Equal(t, RestoreRestored, f.manager.Restore(ctx))
	cur, _ := f.manager.Current()
	require.Equal(t, "Cached Name", cur.Name)
}

func TestManager_RestoreExpiredClearsBothTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.authResult(t, admin)
	require.NoError(t, f.persistent.Set(ctx, KeyToken, res.Token))
	require.NoError(t, f.persistent.Set(ctx, KeyUser, `{"id":1}`))
	require.NoError(t, f.ephemeral.Set(ctx, KeyUser, `{"id":2}`))

	f.clock.now = t0.Add(token.Lifetime)
	var last Identity
	f.manager.Subscribe(func(id Identity) { last = id })

	require.Equal(t, RestoreExpired, f.manager.Restore(ctx))
	require.False(t, last.Authenticated)
	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 0, f.persistent.Len())
	require.Equal(t, 0, f.ephemeral.Len())
}

func TestManager_RestoreInvalid(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable token", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ephemeral.Set(ctx, KeyToken, "not-a-token"))
		require.NoError(t, f.ephemeral.Set(ctx, KeyUser, `{"id":1}`))

		require.Equal(t, RestoreInvalid, f.manager.Restore(ctx))
		require.Equal(t, 0, f.ephemeral.Len())
	})

	t.Run("missing user", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.persistent.Set(ctx, KeyToken, f.authResult(t, admin).Token))

		require.Equal(t, RestoreInvalid, f.manager.Restore(ctx))
		require.Equal(t, 0, f.persistent.Len())
	})

	t.Run("corrupt user", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.persistent.Set(ctx, KeyToken, f.authResult(t, admin).Token))
		require.NoError(t, f.persistent.Set(ctx, KeyUser, "{"))

		require.Equal(t, RestoreInvalid, f.manager.Restore(ctx))
		require.False(t, f.manager.IsAuthenticated())
	})
}

func TestManager_RestoreAbsent(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, RestoreAbsent, f.manager.Restore(context.Background()))
	require.False(t, f.manager.IsAuthenticated())
}

func TestManager_RestoreAbsentDropsOrphanedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.persistent.Set(ctx, KeyUser, `{"id":1,"role":"ADMIN"}`))
	require.NoError(t, f.ephemeral.Set(ctx, KeyUser, `{"id":2}`))

	require.Equal(t, RestoreAbsent, f.manager.Restore(ctx))
	require.Equal(t, 0, f.persistent.Len())
	require.Equal(t, 0, f.ephemeral.Len())
	require.False(t, f.manager.IsAuthenticated())
}

func TestManager_SetAuthDataRollbackLeavesNoBlob(t *testing.T) {
	c := &clock{now: t0}
	codec := token.NewCodec(c.Now)
	persistent := userWriteFails{Memory: storage.NewMemory()}
	m := NewManager(codec, persistent, storage.NewMemory(), zerolog.Nop(), WithClock(c.Now))

	raw, err := codec.Issue(admin)
	require.NoError(t, err)
	require.Error(t, m.SetAuthData(context.Background(), domain.AuthResult{Token: raw, User: admin}, true))
	require.Equal(t, 0, persistent.Len())

	require.Equal(t, RestoreAbsent, m.Restore(context.Background()))
}

func TestManager_ExpiryIsLoggedAsDecodeError(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	c := &clock{now: t0}
	codec := token.NewCodec(c.Now)
	persistent := storage.NewMemory()
	m := NewManager(codec, persistent, storage.NewMemory(), zerolog.New(&buf), WithClock(c.Now))

	raw, err := codec.Issue(admin)
	require.NoError(t, err)
	require.NoError(t, m.SetAuthData(ctx, domain.AuthResult{Token: raw, User: admin}, true))

	c.now = t0.Add(token.Lifetime)
	require.True(t, m.ExpireIfStale(ctx))
	require.Contains(t, buf.String(), domain.ErrTokenExpired.Error())

	buf.Reset()
	require.NoError(t, persistent.Set(ctx, KeyToken, raw))
	require.NoError(t, persistent.Set(ctx, KeyUser, `{"id":1}`))
	require.Equal(t, RestoreExpired, m.Restore(ctx))
	require.Contains(t, buf.String(), domain.ErrTokenExpired.Error())
}

func TestManager_LogoutClearsAndSignals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), true))
	require.NoError(t, f.ephemeral.Set(ctx, KeyToken, "leftover"))

	var order []string
	f.manager.Subscribe(func(id Identity) {
		if !id.Authenticated {
			order = append(order, "published")
		}
	})
	cancel := f.manager.OnLogout(func() { order = append(order, "navigate") })

	f.manager.Logout(ctx)

	require.Equal(t, []string{"published", "navigate"}, order)
	require.Equal(t, 0, f.persistent.Len())
	require.Equal(t, 0, f.ephemeral.Len())
	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.HasRole(domain.RoleAdmin))

	cancel()
	f.manager.Logout(ctx)
	require.Len(t, order, 3)
}

func TestManager_ExpireIfStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.SetAuthData(ctx, f.authResult(t, admin), true))

	require.False(t, f.manager.ExpireIfStale(ctx))
	require.True(t, f.manager.IsAuthenticated())

	f.clock.now = t0.Add(token.Lifetime + time.Minute)
	require.False(t, f.manager.IsAuthenticated())
	require.True(t, f.manager.HasRole(domain.RoleAdmin))

	require.True(t, f.manager.ExpireIfStale(ctx))
	_, ok := f.manager.Current()
	require.False(t, ok)
	require.Equal(t, 0, f.persistent.Len())
	require.False(t, f.manager.ExpireIfStale(ctx))
}

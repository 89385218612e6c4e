// Package app assembles the console from configuration: record store
// backend, session tiers, session manager and services.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/atenas/admin-console/internal/api"
	"github.com/atenas/admin-console/internal/api/handler"
	"github.com/atenas/admin-console/internal/api/metrics"
	"github.com/atenas/admin-console/internal/core/ports"
	"github.com/atenas/admin-console/internal/core/service"
	"github.com/atenas/admin-console/internal/infrastructure/db/mongo"
	"github.com/atenas/admin-console/internal/infrastructure/db/redis"
	"github.com/atenas/admin-console/internal/infrastructure/memstore"
	"github.com/atenas/admin-console/internal/infrastructure/secret"
	"github.com/atenas/admin-console/internal/infrastructure/storage"
	"github.com/atenas/admin-console/internal/pkg/config"
	"github.com/atenas/admin-console/internal/session"
	"github.com/atenas/admin-console/internal/token"
)

// App holds the assembled components.
type App struct {
	Log     zerolog.Logger
	Session *session.Manager
	Backend ports.RecordStore
	Auth    *service.AuthService
	Users   *service.UserService
	Health  map[string]handler.Pinger

	// Restored is the outcome of the startup restore.
	Restored session.RestoreOutcome

	closers []func(context.Context) error
	cancel  func()
}

// Option customises New.
type Option func(*options)

type options struct {
	now         func() time.Time
	redisClient goredis.Cmdable
}

// WithClock replaces time.Now for token issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRedisClient uses client for the redis session tier instead of
// connecting with the configured address.
func WithRedisClient(client goredis.Cmdable) Option {
	return func(o *options) { o.redisClient = client }
}

// New builds the console described by cfg and restores any stored session.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Log: log, Health: map[string]handler.Pinger{}}
	codec := token.NewCodec(o.now)
	hasher := secret.NewHasher(cfg.BcryptCost)

	backend, err := a.backend(ctx, cfg, codec, hasher)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Backend = backend

	persistent, err := a.persistentTier(ctx, cfg, o.redisClient)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Session = session.NewManager(codec, persistent, storage.NewMemory(),
		log.With().Str("component", "session").Logger(),
		session.WithClock(o.now),
	)
	a.cancel = a.Session.Subscribe(func(id session.Identity) {
		if id.Authenticated {
			metrics.SessionActive.Set(1)
			return
		}
		metrics.SessionActive.Set(0)
	})

	a.Restored = a.Session.Restore(ctx)
	metrics.SessionRestoresTotal.WithLabelValues(string(a.Restored)).Inc()

	svcLog := log.With().Str("component", "service").Logger()
	a.Auth = service.NewAuthService(backend, a.Session, svcLog)
	a.Users = service.NewUserService(backend, a.Session, svcLog)
	return a, nil
}

// Router returns the HTTP console. reg may be nil for the default registry.
func (a *App) Router(reg *prometheus.Registry) *echo.Echo {
	return api.NewRouter(api.Deps{
		Session:  a.Session,
		Auth:     a.Auth,
		Users:    a.Users,
		Health:   a.Health,
		Log:      a.Log,
		Registry: reg,
	})
}

// Close releases connections in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) backend(ctx context.Context, cfg *config.Config, codec *token.Codec, hasher *secret.Hasher) (ports.RecordStore, error) {
	log := a.Log.With().Str("component", "backend").Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, Timeout: cfg.Mongo.Timeout})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)

		repo := mongo.NewUserRepository(db, codec, hasher, log)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := repo.Seed(ctx, memstore.DefaultSeed()); err != nil {
			return nil, err
		}
		a.Health["mongodb"] = repo
		return repo, nil

	default:
		var opts []memstore.Option
		if cfg.SimulateLatency {
			opts = append(opts, memstore.WithLatency(memstore.DefaultLatency()))
		}
		store, err := memstore.New(codec, hasher, log, memstore.DefaultSeed(), opts...)
		if err != nil {
			return nil, fmt.Errorf("build memory backend: %w", err)
		}
		return store, nil
	}
}

func (a *App) persistentTier(ctx context.Context, cfg *config.Config, client goredis.Cmdable) (ports.SessionStorage, error) {
	switch cfg.Session.Tier {
	case config.TierRedis:
		return a.redisTier(ctx, cfg, client)
	case config.TierMemory:
		a.Log.Warn().Msg("memory session tier: remembered sessions end with the process")
		return storage.NewMemory(), nil
	default:
		return a.sqliteTier(ctx, cfg)
	}
}

func (a *App) sqliteTier(ctx context.Context, cfg *config.Config) (ports.SessionStorage, error) {
	path := cfg.Session.Path
	if path == "" {
		p, err := storage.DefaultSQLitePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	tier, err := storage.OpenSQLite(ctx, path, cfg.Session.Namespace)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return tier.Close() })
	a.Health["session_db"] = tier
	a.Log.Debug().Str("path", path).Msg("sqlite session tier opened")
	return tier, nil
}

func (a *App) redisTier(ctx context.Context, cfg *config.Config, client goredis.Cmdable) (ports.SessionStorage, error) {
	if client == nil {
		c, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		client = c
	}
	a.Health["redis"] = handler.PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return redis.NewSessionTier(client, cfg.Session.Namespace), nil
}

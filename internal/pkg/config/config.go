package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"

	TierMemory = "memory"
	TierSQLite = "sqlite"
	TierRedis  = "redis"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	Addr      string `env:"ADDR,       default=:8080"`

	// Backend selects the record store: memory or mongo.
	Backend string `env:"BACKEND, default=memory"`
	// SimulateLatency enables the artificial delays of the memory backend.
	SimulateLatency bool `env:"SIMULATE_LATENCY, default=true"`
	BcryptCost      int  `env:"BCRYPT_COST,      default=10"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	// Tier selects the persistent session tier: sqlite, redis or memory.
	// memory does not survive a restart.
	Tier      string `env:"SESSION_TIER,      default=sqlite"`
	Namespace string `env:"SESSION_NAMESPACE, default=default"`
	// Path is the sqlite session file. Empty means session.db under the
	// user's config directory.
	Path string `env:"SESSION_PATH"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=atenas"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables. In development a .env
// file in the working directory is loaded first; variables already set win.
func Load(ctx context.Context) (*Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == "development" {
		_ = godotenv.Load()
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("config: BACKEND must be %q or %q, got %q", BackendMemory, BackendMongo, c.Backend)
	}
	switch c.Session.Tier {
	case TierSQLite, TierRedis, TierMemory:
	default:
		return fmt.Errorf("config: SESSION_TIER must be %q, %q or %q, got %q", TierSQLite, TierRedis, TierMemory, c.Session.Tier)
	}
	return nil
}

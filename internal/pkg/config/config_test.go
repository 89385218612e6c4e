package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	require.Equal(t, BackendMemory, cfg.Backend)
	require.Equal(t, TierSQLite, cfg.Session.Tier)
	require.Empty(t, cfg.Session.Path)
	require.Equal(t, "default", cfg.Session.Namespace)
	require.Equal(t, ":8080", cfg.Addr)
	require.True(t, cfg.SimulateLatency)
	require.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"BACKEND":           "mongo",
		"SESSION_TIER":      "redis",
		"SESSION_NAMESPACE": "console",
		"SIMULATE_LATENCY":  "false",
		"REDIS_DB":          "3",
		"SESSION_PATH":      "/tmp/atenas/session.db",
	}))
	require.NoError(t, err)

	require.Equal(t, BackendMongo, cfg.Backend)
	require.Equal(t, TierRedis, cfg.Session.Tier)
	require.Equal(t, "console", cfg.Session.Namespace)
	require.False(t, cfg.SimulateLatency)
	require.Equal(t, 3, cfg.Redis.DB)
	require.Equal(t, "/tmp/atenas/session.db", cfg.Session.Path)
}

func TestLoadAcceptsEveryTier(t *testing.T) {
	for _, tier := range []string{TierSQLite, TierRedis, TierMemory} {
		cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"SESSION_TIER": tier}))
		require.NoError(t, err)
		require.Equal(t, tier, cfg.Session.Tier)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"BACKEND": "postgres"}))
	require.Error(t, err)

	_, err = load(context.Background(), envconfig.MapLookuper(map[string]string{"SESSION_TIER": "disk"}))
	require.Error(t, err)
}

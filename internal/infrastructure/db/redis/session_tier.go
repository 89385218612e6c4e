package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atenas/admin-console/internal/core/ports"
)

// SessionTier is a SessionStorage backed by Redis. Keys never expire; the
// session layer decides validity from the token itself.
// Key format: session:<namespace>:<key>
type SessionTier struct {
	client    redis.Cmdable
	namespace string
}

var _ ports.SessionStorage = (*SessionTier)(nil)

// NewSessionTier scopes keys under namespace, so several consoles can share
// one Redis.
func NewSessionTier(client redis.Cmdable, namespace string) *SessionTier {
	if namespace == "" {
		namespace = "default"
	}
	return &SessionTier{client: client, namespace: namespace}
}

func (t *SessionTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := t.client.Get(ctx, t.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session tier get %s: %w", key, err)
	}
	return v, true, nil
}

func (t *SessionTier) Set(ctx context.Context, key, value string) error {
	if err := t.client.Set(ctx, t.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("session tier set %s: %w", key, err)
	}
	return nil
}

func (t *SessionTier) Remove(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.key(key)).Err(); err != nil {
		return fmt.Errorf("session tier remove %s: %w", key, err)
	}
	return nil
}

func (t *SessionTier) key(k string) string {
	return fmt.Sprintf("session:%s:%s", t.namespace, k)
}

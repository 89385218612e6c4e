package ports

import "context"

// Tier selects where a session is kept.
type Tier string

const (
	// TierPersistent survives process restarts.
	TierPersistent Tier = "persistent"
	// TierEphemeral lives only as long as the current process.
	TierEphemeral Tier = "ephemeral"
)

// SessionStorage is an opaque string key/value surface backing one tier.
type SessionStorage interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Package storage holds the local session tiers: an in-process map and a
// SQLite file that survives restarts.
package storage

import (
	"context"
	"sync"

	"github.com/atenas/admin-console/internal/core/ports"
)

// Memory is a SessionStorage that lives as long as the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.SessionStorage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Len reports how many keys are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

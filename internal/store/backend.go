package store

import (
	"context"
	"sync"

	"github.com/desertthunder/vtx/internal/repositories"
)

// Backend is one storage medium for credential keys. Implementations are safe for concurrent use.
type Backend interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Removing an absent key succeeds.
	Delete(ctx context.Context, key string) error
}

// MemoryBackend keeps values in a map for the life of the process.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend returns an empty [MemoryBackend].
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// DurableBackend adapts a [repositories.CredentialRepository] to [Backend].
type DurableBackend struct {
	repo *repositories.CredentialRepository
}

// NewDurableBackend wraps repo.
func NewDurableBackend(repo *repositories.CredentialRepository) *DurableBackend {
	return &DurableBackend{repo: repo}
}

func (d *DurableBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return d.repo.Get(ctx, key)
}

func (d *DurableBackend) Set(ctx context.Context, key, value string) error {
	return d.repo.Set(ctx, key, value)
}

func (d *DurableBackend) Delete(ctx context.Context, key string) error {
	return d.repo.Delete(ctx, key)
}

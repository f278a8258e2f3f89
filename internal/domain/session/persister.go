package session

import (
	"context"
	"sync"
)

// Persister is durable client-side storage for one encoded snapshot.
type Persister interface {
	// Load returns the stored snapshot, or nil when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored snapshot.
	Save(ctx context.Context, data []byte) error
}

// MemoryPersister keeps the snapshot in memory. Used in tests and when no
// durable store is configured.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte

	// LoadFunc/SaveFunc override the default behavior when set.
	LoadFunc func(ctx context.Context) ([]byte, error)
	SaveFunc func(ctx context.Context, data []byte) error
}

// Load implements Persister.
func (m *MemoryPersister) Load(ctx context.Context) ([]byte, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

// Save implements Persister.
func (m *MemoryPersister) Save(ctx context.Context, data []byte) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns the last saved snapshot.
func (m *MemoryPersister) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

var _ Persister = (*MemoryPersister)(nil)

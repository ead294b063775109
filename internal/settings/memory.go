package settings

import (
	"context"
	"sync"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// MemoryStore keeps the snapshot in process. Set publishes synchronously.
type MemoryStore struct {
	observers
	mu  sync.RWMutex
	cur model.Settings
	err error
}

func NewMemoryStore(s model.Settings) *MemoryStore {
	return &MemoryStore{cur: s}
}

func (m *MemoryStore) Snapshot(ctx context.Context) (model.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return model.Settings{}, m.err
	}
	return m.cur, nil
}

// Set replaces the snapshot and notifies every handler.
func (m *MemoryStore) Set(s model.Settings) {
	m.mu.Lock()
	m.cur = s
	m.err = nil
	m.mu.Unlock()
	m.notify(s)
}

// Fail makes Snapshot return err until the next Set.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MemoryStore) OnSettingsChanged(h Handler) func() {
	return m.add(h)
}

func (m *MemoryStore) Close() error { return nil }

package store

import (
	"context"
	"sync"

	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// MemoryStore keeps the most recent entries in process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.Entry // ascending sequence
	byUUID  map[string]struct{}
	seq     int64
	max     int
}

// NewMemoryStore returns a store holding at most max entries (1000 if max <= 0).
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStore{byUUID: map[string]struct{}{}, max: max}
}

// Store appends entries, ignoring UUIDs already stored.
func (m *MemoryStore) Store(_ context.Context, entries []models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if _, dup := m.byUUID[e.UUID]; dup {
			continue
		}
		m.seq++
		e.Sequence = m.seq
		m.entries = append(m.entries, e)
		m.byUUID[e.UUID] = struct{}{}
	}

	if over := len(m.entries) - m.max; over > 0 {
		for _, e := range m.entries[:over] {
			delete(m.byUUID, e.UUID)
		}
		m.entries = append([]models.Entry(nil), m.entries[over:]...)
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, q ListQuery) ([]models.Entry, error) {
	q = q.normalized()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Entry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < q.Limit; i-- {
		e := m.entries[i]
		if e.Type != q.Type {
			continue
		}
		if q.BeforeSequence > 0 && e.Sequence >= q.BeforeSequence {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) Find(_ context.Context, uuid string) (models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.UUID == uuid {
			return e, nil
		}
	}
	return models.Entry{}, ErrNotFound
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store without persistence. It backs ephemeral runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	state  map[string]string
	views  []View
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]string)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) GetState(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *MemoryStore) SetState(_ context.Context, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = val
	return nil
}

func (m *MemoryStore) DeleteState(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

func (m *MemoryStore) RecordOpen(_ context.Context, v *View) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	m.views = append(m.views, *v)
	return v.ID, nil
}

func (m *MemoryStore) RecordClose(_ context.Context, id int64, closedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.views {
		if m.views[i].ID == id {
			if m.views[i].ClosedAt == nil {
				t := closedAt
				m.views[i].ClosedAt = &t
			}
			return nil
		}
	}
	return fmt.Errorf("view %d not found", id)
}

func (m *MemoryStore) ViewCounts(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, v := range m.views {
		counts[v.Hotspot]++
	}
	return counts, nil
}

func (m *MemoryStore) RecentViews(_ context.Context, limit int) ([]View, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	views := make([]View, len(m.views))
	copy(views, m.views)
	m.mu.RUnlock()

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].OpenedAt.Equal(views[j].OpenedAt) {
			return views[i].ID > views[j].ID
		}
		return views[i].OpenedAt.After(views[j].OpenedAt)
	})
	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

func (m *MemoryStore) PruneViews(_ context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.views[:0]
	for _, v := range m.views {
		if !v.OpenedAt.Before(cutoff) {
			kept = append(kept, v)
		}
	}
	n := int64(len(m.views) - len(kept))
	m.views = kept
	return n, nil
}

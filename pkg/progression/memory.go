package progression

import (
	"context"
	"sync"
)

// MemoryStore implements Store with mutex-guarded maps. It backs local runs
// without Redis and keeps unit tests free of external processes. Values are
// deep-copied on the way in and out to avoid external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*PlayerCategoryRecord
	globals map[string]*GlobalPlayerRecord
	views   map[string]*LeaderboardView
	sets    map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory progression store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*PlayerCategoryRecord),
		globals: make(map[string]*GlobalPlayerRecord),
		views:   make(map[string]*LeaderboardView),
		sets:    make(map[string]map[string]struct{}),
	}
}

func recordMapKey(category, player string) string {
	return category + "\x00" + player
}

func (m *MemoryStore) GetRecord(_ context.Context, category, player string) (*PlayerCategoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordMapKey(category, player)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) PutRecord(_ context.Context, rec *PlayerCategoryRecord, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordMapKey(rec.Category, rec.Player)
	current, exists := m.records[key]
	if expectedVersion == VersionNew {
		if exists {
			return ErrVersionConflict
		}
	} else if !exists || current.Version != expectedVersion {
		return ErrVersionConflict
	}

	rec.Version = expectedVersion + 1
	m.records[key] = rec.Clone()
	return nil
}

func (m *MemoryStore) DeleteRecord(_ context.Context, category, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, recordMapKey(category, player))
	return nil
}

func (m *MemoryStore) GetGlobalRecord(_ context.Context, player string) (*GlobalPlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.globals[player]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) PutGlobalRecord(_ context.Context, rec *GlobalPlayerRecord, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.globals[rec.Player]
	if expectedVersion == VersionNew {
		if exists {
			return ErrVersionConflict
		}
	} else if !exists || current.Version != expectedVersion {
		return ErrVersionConflict
	}

	rec.Version = expectedVersion + 1
	m.globals[rec.Player] = rec.Clone()
	return nil
}

func (m *MemoryStore) DeleteGlobalRecord(_ context.Context, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.globals, player)
	return nil
}

func (m *MemoryStore) GetView(_ context.Context, name string) (*LeaderboardView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view, ok := m.views[name]
	if !ok {
		return nil, ErrNotFound
	}
	return view.Clone(), nil
}

func (m *MemoryStore) PutView(_ context.Context, name string, view *LeaderboardView) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.views[name] = view.Clone()
	return nil
}

func (m *MemoryStore) DeleteView(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.views, name)
	return nil
}

func (m *MemoryStore) AddToSet(_ context.Context, set, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sets[set]
	if !ok {
		s = make(map[string]struct{})
		m.sets[set] = s
	}
	s[member] = struct{}{}
	return nil
}

func (m *MemoryStore) RemoveFromSet(_ context.Context, set, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sets[set]; ok {
		delete(s, member)
	}
	return nil
}

func (m *MemoryStore) SetSize(_ context.Context, set string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.sets[set])), nil
}

func (m *MemoryStore) SetMembers(_ context.Context, set string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]string, 0, len(m.sets[set]))
	for member := range m.sets[set] {
		members = append(members, member)
	}
	return members, nil
}

func (m *MemoryStore) DeleteSet(_ context.Context, set string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sets, set)
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store for local runs and tests. Expired keys are
// purged lazily on access; the TTL is a leak guard, not a scheduler.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	list      [][]byte
	set       map[string]struct{}
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) entry(key string) *memoryEntry {
	if e, ok := m.entries[key]; ok {
		if !e.expired(m.now()) {
			return e
		}
		delete(m.entries, key)
	}
	e := &memoryEntry{}
	m.entries[key] = e
	return e
}

func (m *Memory) ListAppend(_ context.Context, key string, value []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	e.list = append(e.list, value)
	return len(e.list), nil
}

func (m *Memory) ListRange(_ context.Context, key string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	out := make([][]byte, len(e.list))
	copy(out, e.list)
	return out, nil
}

func (m *Memory) SetAdd(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	if e.set == nil {
		e.set = make(map[string]struct{})
	}
	if _, ok := e.set[member]; ok {
		return false, nil
	}
	e.set[member] = struct{}{}
	return true, nil
}

func (m *Memory) SetMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	out := make([]string, 0, len(e.set))
	for member := range e.set {
		out = append(out, member)
	}
	return out, nil
}

func (m *Memory) SetRemove(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	delete(e.set, member)
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && !e.expired(m.now()) {
		e.expiresAt = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/BlackMission/workosauth/internal/domain"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]memoryEntry),
		now:      time.Now,
	}
}

// SetNow overrides the time function (for testing).
func (m *MemoryStore) SetNow(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = fn
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.sessions[sessionID]
	if !ok {
		entries = make(map[string]memoryEntry)
		m.sessions[sessionID] = entries
	}
	entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, sessionID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	entry, ok := entries[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(m.sessions, sessionID)
	}
	if m.now().After(entry.expiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return entry.value, nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Sweep drops expired entries. It returns the number of entries removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for sid, entries := range m.sessions {
		for key, entry := range entries {
			if now.After(entry.expiresAt) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(m.sessions, sid)
		}
	}
	return removed
}

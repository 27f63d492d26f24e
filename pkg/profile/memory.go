package profile

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-memory Store. It is useful for tests and for
// processes that only need stickiness within their own lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]map[string]string)}
}

// Lookup returns a copy of the user's stored decisions.
func (m *MemoryStore) Lookup(ctx context.Context, userID string) (Profile, error) {
	m.mu.RLock()
	decisions, ok := m.profiles[userID]
	var copied map[string]string
	if ok {
		copied = maps.Clone(decisions)
	}
	m.mu.RUnlock()

	if !ok {
		return Profile{}, ErrNotFound
	}
	return Profile{UserID: userID, Decisions: copied}, nil
}

// Save records one assignment, creating the profile if needed.
func (m *MemoryStore) Save(ctx context.Context, userID, experimentID, variationID string) error {
	if userID == "" || experimentID == "" || variationID == "" {
		return ErrInvalidProfile
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	decisions, ok := m.profiles[userID]
	if !ok {
		decisions = make(map[string]string)
		m.profiles[userID] = decisions
	}
	decisions[experimentID] = variationID
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"travel_portal_backend/internal/wizard/domain"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. States are stored encoded so
// callers never share pointers with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]memoryEntry
	locksMu  sync.Mutex
	locks    map[uuid.UUID]chan struct{}
	wait     time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]memoryEntry),
		locks:    make(map[uuid.UUID]chan struct{}),
		wait:     lockWait,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, state *domain.State) error {
	return m.Save(ctx, state)
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.State, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	var state domain.State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MemoryStore) Save(_ context.Context, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.SessionID] = memoryEntry{data: data, expiresAt: state.ExpiresAt}
	m.evictExpiredLocked()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Lock waits a bounded time for the session's lock.
func (m *MemoryStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	m.locksMu.Lock()
	ch, ok := m.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[id] = ch
	}
	m.locksMu.Unlock()

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, ErrLocked
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MemoryStore) evictExpiredLocked() {
	now := m.now()
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

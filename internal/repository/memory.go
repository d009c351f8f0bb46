package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"jetcharter/internal/models"
)

type stateEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStateRepository keeps states in process. Entries are stored encoded so
// callers never share a state value, the same as with redis.
type MemoryStateRepository struct {
	states sync.Map
	ttl    time.Duration

	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	lastSweep  time.Time

	now func() time.Time
}

// sweepInterval bounds how often writes scan for expired entries.
const sweepInterval = time.Minute

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl:        ttl,
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, sessionID string) (*models.SessionState, error) {
	val, ok := r.states.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(stateEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.states.Delete(sessionID)
		return nil, nil
	}

	var state models.SessionState
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	entry := stateEntry{data: data}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.states.Store(state.SessionID, entry)
	r.maybeSweep()
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, sessionID string) error {
	r.states.Delete(sessionID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.maybeSweep()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}

func (r *MemoryStateRepository) maybeSweep() {
	now := r.now()
	r.mu.Lock()
	if now.Sub(r.lastSweep) < sweepInterval {
		r.mu.Unlock()
		return
	}
	r.lastSweep = now
	r.mu.Unlock()

	r.Sweep()
}

// Sweep drops every expired state and rate limit window.
func (r *MemoryStateRepository) Sweep() {
	now := r.now()
	r.states.Range(func(key, val any) bool {
		entry := val.(stateEntry)
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			r.states.CompareAndDelete(key, val)
		}
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, key)
		}
	}
}

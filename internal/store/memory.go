package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/entry"
)

// Memory is an in-memory store with the same behaviour as the SQLite Store.
// Used for deterministic tests.
type Memory struct {
	mu          sync.RWMutex
	committed   map[string]entry.Committed // keyed by entry ID
	pending     map[string]entry.Pending   // keyed by pending ID
	byActivity  map[string]struct{}        // activity IDs with any entry
	profile     map[string]float64
	checkpoints map[activity.Kind]time.Time

	// FailSaves makes persistence calls fail, for error-path tests.
	FailSaves bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		committed:   make(map[string]entry.Committed),
		pending:     make(map[string]entry.Pending),
		byActivity:  make(map[string]struct{}),
		profile:     make(map[string]float64),
		checkpoints: make(map[activity.Kind]time.Time),
	}
}

// SaveCommitted persists a committed entry.
func (m *Memory) SaveCommitted(_ context.Context, e entry.Committed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves {
		return fmt.Errorf("simulated save failure")
	}
	m.committed[e.ID] = e
	m.byActivity[e.ActivityID] = struct{}{}
	return nil
}

// ListCommitted returns all committed entries.
func (m *Memory) ListCommitted(_ context.Context) ([]entry.Committed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entry.Committed, 0, len(m.committed))
	for _, e := range m.committed {
		out = append(out, e)
	}
	return out, nil
}

// SavePending persists a pending entry.
func (m *Memory) SavePending(_ context.Context, p entry.Pending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves {
		return fmt.Errorf("simulated save failure")
	}
	m.pending[p.ID] = p
	m.byActivity[p.ActivityID] = struct{}{}
	return nil
}

// GetPending retrieves a pending entry by ID. Returns (nil, nil) when absent.
func (m *Memory) GetPending(_ context.Context, id string) (*entry.Pending, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListPending returns all pending entries.
func (m *Memory) ListPending(_ context.Context) ([]entry.Pending, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entry.Pending, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p)
	}
	return out, nil
}

// DeletePending removes a pending entry and frees its activity ID.
func (m *Memory) DeletePending(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pending[id]; ok {
		delete(m.pending, id)
		if _, committed := m.committedByActivity(p.ActivityID); !committed {
			delete(m.byActivity, p.ActivityID)
		}
	}
	return nil
}

// HasEntryForActivity reports whether any entry references the activity ID.
func (m *Memory) HasEntryForActivity(_ context.Context, activityID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byActivity[activityID]
	return ok, nil
}

// LoadProfile returns a copy of the persisted correction profile.
func (m *Memory) LoadProfile(_ context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.profile))
	for k, v := range m.profile {
		out[k] = v
	}
	return out, nil
}

// SaveProfile replaces the persisted correction profile.
func (m *Memory) SaveProfile(_ context.Context, profile map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves {
		return fmt.Errorf("simulated save failure")
	}
	m.profile = make(map[string]float64, len(profile))
	for k, v := range profile {
		m.profile[k] = v
	}
	return nil
}

// Checkpoint returns the last sync time for kind, or the zero time.
func (m *Memory) Checkpoint(_ context.Context, kind activity.Kind) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkpoints[kind], nil
}

// SaveCheckpoint records the last sync time for kind.
func (m *Memory) SaveCheckpoint(_ context.Context, kind activity.Kind, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves {
		return fmt.Errorf("simulated save failure")
	}
	m.checkpoints[kind] = t
	return nil
}

func (m *Memory) committedByActivity(activityID string) (entry.Committed, bool) {
	for _, e := range m.committed {
		if e.ActivityID == activityID {
			return e, true
		}
	}
	return entry.Committed{}, false
}

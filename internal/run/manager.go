package run

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrRunInProgress = errors.New("user already has an active run")
	ErrNoActiveRun   = errors.New("no active run with that id")
)

// Manager registers one tracker per active run. Trackers are explicitly
// constructed per run and removed when the run finishes or is discarded.
type Manager struct {
	mu      sync.Mutex
	store   RunStore
	hub     Broadcaster
	opts    Options
	byRun   map[string]*Tracker
	byUser  map[string]string
	ownerOf map[string]string
}

func NewManager(store RunStore, hub Broadcaster, opts Options) *Manager {
	return &Manager{
		store:   store,
		hub:     hub,
		opts:    opts,
		byRun:   map[string]*Tracker{},
		byUser:  map[string]string{},
		ownerOf: map[string]string{},
	}
}

// StartRun creates and registers a tracker for the user. One active run per
// user at a time.
func (m *Manager) StartRun(ctx context.Context, userID string) (Run, error) {
	m.mu.Lock()
	if _, busy := m.byUser[userID]; busy {
		m.mu.Unlock()
		return Run{}, ErrRunInProgress
	}
	m.byUser[userID] = "" // reserve the slot before the store round trip
	m.mu.Unlock()

	tracker := NewTracker(m.store, m.hub, m.opts)
	r, err := tracker.Start(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		delete(m.byUser, userID)
		return Run{}, err
	}
	m.byRun[r.ID] = tracker
	m.byUser[userID] = r.ID
	m.ownerOf[r.ID] = userID
	return r, nil
}

// Tracker looks up the active tracker for a run.
func (m *Manager) Tracker(runID string) (*Tracker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byRun[runID]
	return t, ok
}

// Owner reports which user started the run.
func (m *Manager) Owner(runID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.ownerOf[runID]
	return owner, ok
}

// StopRun finalizes and deregisters. On finalization failure the tracker
// stays registered so the stop can be retried.
func (m *Manager) StopRun(ctx context.Context, runID string) (Run, error) {
	t, ok := m.Tracker(runID)
	if !ok {
		return Run{}, ErrNoActiveRun
	}
	completed, err := t.Stop(ctx)
	if err != nil {
		return Run{}, err
	}
	m.remove(runID)
	return completed, nil
}

// DiscardRun abandons an active run.
func (m *Manager) DiscardRun(runID string) error {
	t, ok := m.Tracker(runID)
	if !ok {
		return ErrNoActiveRun
	}
	t.Discard()
	m.remove(runID)
	return nil
}

func (m *Manager) remove(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.ownerOf[runID]; ok {
		delete(m.byUser, owner)
	}
	delete(m.ownerOf, runID)
	delete(m.byRun, runID)
}

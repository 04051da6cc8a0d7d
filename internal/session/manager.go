package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// Manager keeps the live sessions of a server process.
type Manager struct {
	mu       sync.RWMutex
	ctx      context.Context
	backend  Backend
	interval time.Duration
	sessions map[uuid.UUID]*Session
	log      *slog.Logger
}

// NewManager creates a Manager whose sessions load from and save to backend.
// Each session's rest ticker fires every interval and stops when ctx is done.
func NewManager(ctx context.Context, backend Backend, interval time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		ctx:      ctx,
		backend:  backend,
		interval: interval,
		sessions: make(map[uuid.UUID]*Session),
		log:      log,
	}
}

// Start loads a workout plan and registers a new running session owned by
// userID. When the backend knows workout owners, a workout that belongs to
// someone else is reported as not found.
func (m *Manager) Start(ctx context.Context, userID int, workoutID uuid.UUID) (*Session, error) {
	if o, ok := m.backend.(Owners); ok {
		owner, err := o.WorkoutOwner(ctx, workoutID)
		if err == nil && owner != userID {
			m.log.Warn("session start refused", "workout", workoutID.String(), "user", userID, "owner", owner)
			err = models.ErrWorkoutNotFound
		}
		if err != nil {
			return nil, &PlanLoadError{WorkoutID: workoutID, Err: err}
		}
	}

	s, err := Load(ctx, m.backend, workoutID, m.log)
	if err != nil {
		m.log.Error("plan load failed", "workout", workoutID.String(), "error", err)
		return nil, err
	}
	s.userID = userID

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	go s.Run(m.ctx, m.interval)
	return s, nil
}

// Get returns a live session of userID. Sessions of other users are not found.
func (m *Manager) Get(userID int, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok || s.userID != userID {
		return nil, ErrNotFound
	}
	return s, nil
}

// List snapshots the live sessions of userID, oldest first.
func (m *Manager) List(userID int) []Snapshot {
	m.mu.RLock()
	var mine []*Session
	for _, s := range m.sessions {
		if s.userID == userID {
			mine = append(mine, s)
		}
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(mine))
	for _, s := range mine {
		snaps = append(snaps, s.Snapshot())
	}
	slices.SortFunc(snaps, func(a, b Snapshot) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return snaps
}

// Len returns the number of live sessions across all users.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Abandon discards a session of userID without saving anything.
func (m *Manager) Abandon(userID int, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.userID != userID {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	m.log.Info("session abandoned", "session", id.String())
	return nil
}

// Finish saves a session of userID and, on success, discards it. On failure
// the session stays registered so the caller can retry.
func (m *Manager) Finish(ctx context.Context, userID int, id uuid.UUID) error {
	s, err := m.Get(userID, id)
	if err != nil {
		return err
	}
	if err := s.Finish(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Close discards every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

// Package session runs one active workout: it loads the plan from a Backend,
// drives the progression engine for the exercise on screen, enforces the
// guards around navigation and set removal, and writes the performed sets
// back when the workout is finished.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/progression"
	"github.com/google/uuid"
)

// SwipeThreshold is the horizontal distance a swipe must cover to switch exercise.
const SwipeThreshold = 50.0

// Session is a single in-progress workout. All methods are safe for
// concurrent use; operations are serialized.
type Session struct {
	mu        sync.Mutex
	id        uuid.UUID
	workoutID uuid.UUID
	userID    int
	backend   Backend
	engine    *progression.Engine
	active    int
	saving    bool
	editing   bool
	finished  bool
	startedAt time.Time
	log       *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Load fetches the plan for workoutID and starts a session at the first
// exercise. A failed fetch returns a *PlanLoadError and no session.
func Load(ctx context.Context, backend Backend, workoutID uuid.UUID, log *slog.Logger) (*Session, error) {
	plan, err := backend.FetchPlan(ctx, workoutID)
	if err != nil {
		return nil, &PlanLoadError{WorkoutID: workoutID, Err: err}
	}

	id := uuid.New()
	s := &Session{
		id:        id,
		workoutID: workoutID,
		backend:   backend,
		engine:    progression.New(plan),
		startedAt: time.Now(),
		log:       log.With("session", id.String(), "workout", workoutID.String()),
		done:      make(chan struct{}),
	}
	s.log.Info("session started", "exercises", len(plan))
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// WorkoutID returns the workout the session was loaded from.
func (s *Session) WorkoutID() uuid.UUID { return s.workoutID }

// UserID returns the user the session was started for.
func (s *Session) UserID() int { return s.userID }

// Done is closed when the session is finished or closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the rest ticker. The session is discarded without saving.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) activeID() (uuid.UUID, bool) {
	return s.engine.ExerciseAt(s.active)
}

// mutable returns the active exercise if the session accepts changes.
func (s *Session) mutable() (uuid.UUID, error) {
	if s.finished {
		return uuid.Nil, ErrFinished
	}
	if s.saving {
		return uuid.Nil, ErrSaving
	}
	id, ok := s.activeID()
	if !ok {
		return uuid.Nil, ErrNoExercises
	}
	return id, nil
}

// Active returns the state of the exercise currently on screen.
func (s *Session) Active() (progression.ExerciseState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.activeID()
	if !ok {
		return progression.ExerciseState{}, false
	}
	return s.engine.State(id), true
}

func (s *Session) navigable() error {
	if s.finished {
		return ErrFinished
	}
	if s.saving || s.editing {
		return ErrNavigationBlocked
	}
	if id, ok := s.activeID(); ok && s.engine.IsResting(id) && !s.engine.IsDone(id) {
		return ErrNavigationBlocked
	}
	return nil
}

func (s *Session) move(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.navigable(); err != nil {
		return err
	}
	next := s.active + delta
	if next < 0 || next >= s.engine.Len() {
		return nil
	}
	s.active = next
	return nil
}

// Next moves to the following exercise. At the last exercise it does nothing.
func (s *Session) Next() error { return s.move(1) }

// Prev moves to the previous exercise. At the first exercise it does nothing.
func (s *Session) Prev() error { return s.move(-1) }

// Swipe translates a horizontal drag into navigation: left past the
// threshold goes forward, right goes back, anything shorter is ignored.
func (s *Session) Swipe(dx float64) error {
	switch {
	case dx <= -SwipeThreshold:
		return s.Next()
	case dx >= SwipeThreshold:
		return s.Prev()
	}
	return nil
}

// SetEditing marks the edit sheet as open or closed. Navigation is blocked while open.
func (s *Session) SetEditing(open bool) {
	s.mu.Lock()
	s.editing = open
	s.mu.Unlock()
}

// CompleteSet records the current set of the active exercise and starts
// rest if the set prescribes one.
func (s *Session) CompleteSet() (models.SetInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	if err != nil {
		return models.SetInstance{}, err
	}
	if s.engine.IsResting(id) {
		return models.SetInstance{}, ErrResting
	}
	set, ok := s.engine.Complete(id)
	if !ok {
		return models.SetInstance{}, ErrAllDone
	}
	s.engine.StartRest(id, set.Rest())
	return set, nil
}

// SkipRest ends the active exercise's rest countdown.
func (s *Session) SkipRest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	if err != nil {
		return err
	}
	s.engine.SkipRest(id)
	return nil
}

// AddSet appends an extra set to the active exercise.
func (s *Session) AddSet() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	if err != nil {
		return err
	}
	s.engine.AddExtraSet(id)
	return nil
}

// CanRemoveSet reports whether RemoveSet would currently succeed.
func (s *Session) CanRemoveSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	return err == nil && s.removable(id)
}

func (s *Session) removable(id uuid.UUID) bool {
	return !s.engine.IsResting(id) && !s.engine.IsDone(id) && s.engine.CanRemoveAnySet(id)
}

// RemoveSet removes one set from the active exercise and returns the message
// to show the user. Removal is refused while resting or once the exercise
// is complete.
func (s *Session) RemoveSet() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	if err != nil {
		if errors.Is(err, ErrSaving) {
			return "", ErrRemovalBlocked
		}
		return "", err
	}
	if s.engine.IsResting(id) || s.engine.IsDone(id) {
		return "", ErrRemovalBlocked
	}
	res := s.engine.RemoveOneSet(id)
	if !res.Removed {
		return "", ErrRemovalRejected
	}
	if res.TrimmedLedger {
		return "Removed 1 set (and adjusted completed sets)", nil
	}
	return "Removed 1 set", nil
}

// EditFirstSet applies the edit sheet: reps and weight are parsed from user
// input and any blank or unparseable field keeps its current value. Closes
// the edit sheet.
func (s *Session) EditFirstSet(repsText, weightText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.mutable()
	if err != nil {
		return err
	}
	s.engine.EditFirstSet(id, parseReps(repsText), parseWeight(weightText))
	s.editing = false
	return nil
}

func parseReps(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// parseWeight accepts both "72.5" and "72,5".
func parseWeight(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

// Tick advances the rest countdown of the active exercise only. Other
// exercises keep their remaining rest frozen until they are shown again.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	if id, ok := s.activeID(); ok {
		s.engine.TickRest(id)
	}
}

// Run ticks the session every interval until ctx is cancelled or the
// session is finished or closed.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Finish writes every exercise's performed sets to the backend, one
// ReplaceSets call per exercise. On failure the session is left intact and
// can be finished again; the blocks are recomputed from the ledger.
func (s *Session) Finish(ctx context.Context) error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrFinished
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaving
	}
	s.saving = true
	ids := s.engine.IDs()
	blocks := make([][]models.SetBlock, len(ids))
	for i, id := range ids {
		blocks[i] = s.engine.Finalize(id)
	}
	s.mu.Unlock()

	var err error
	for i, id := range ids {
		if werr := s.backend.ReplaceSets(ctx, id, blocks[i]); werr != nil {
			err = &PersistenceError{WorkoutExerciseID: id, Err: werr}
			break
		}
	}

	if err == nil {
		if f, ok := s.backend.(Finisher); ok {
			if ferr := f.MarkFinished(ctx, s.workoutID, time.Now()); ferr != nil {
				s.log.Warn("marking workout finished", "error", ferr)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.log.Error("finish failed", "error", err)
		return err
	}
	s.finished = true
	s.Close()
	s.log.Info("session finished", "exercises", len(ids), "duration", time.Since(s.startedAt).Round(time.Second).String())
	return nil
}

// Snapshot is a point-in-time view of the whole session.
type Snapshot struct {
	ID               uuid.UUID                   `json:"id"`
	WorkoutID        uuid.UUID                   `json:"workout_id"`
	UserID           int                         `json:"user_id"`
	ActiveIndex      int                         `json:"active_index"`
	ActiveExerciseID uuid.UUID                   `json:"active_exercise_id"`
	Saving           bool                        `json:"saving"`
	Editing          bool                        `json:"editing"`
	Finished         bool                        `json:"finished"`
	CanRemoveSet     bool                        `json:"can_remove_set"`
	StartedAt        time.Time                   `json:"started_at"`
	Exercises        []progression.ExerciseState `json:"exercises"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		WorkoutID:   s.workoutID,
		UserID:      s.userID,
		ActiveIndex: s.active,
		Saving:      s.saving,
		Editing:     s.editing,
		Finished:    s.finished,
		StartedAt:   s.startedAt,
	}
	if id, ok := s.activeID(); ok {
		snap.ActiveExerciseID = id
		snap.CanRemoveSet = !s.finished && !s.saving && s.removable(id)
	}
	for _, id := range s.engine.IDs() {
		snap.Exercises = append(snap.Exercises, s.engine.State(id))
	}
	return snap
}

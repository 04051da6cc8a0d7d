// Package progression tracks a user's progress through the planned sets of a
// strength workout: per-exercise cursors, rest countdowns, ad hoc sets, and
// the ledger of sets actually performed.
//
// An Engine is not safe for concurrent use; the owning session serializes access.
package progression

import (
	"slices"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/runs"
	"github.com/google/uuid"
)

type exerciseState struct {
	exercise  models.PlannedExercise
	extra     int
	pos       Position
	resting   bool
	remaining int
	performed []models.SetValues
}

// Engine owns the session state of every exercise in one workout.
type Engine struct {
	order  []uuid.UUID
	states map[uuid.UUID]*exerciseState
}

// New builds an engine over the given plan. Exercises are ordered by
// OrderIndex and their configs by ID; the input is copied.
func New(exercises []models.PlannedExercise) *Engine {
	sorted := slices.Clone(exercises)
	slices.SortStableFunc(sorted, func(a, b models.PlannedExercise) int {
		return a.OrderIndex - b.OrderIndex
	})

	e := &Engine{states: make(map[uuid.UUID]*exerciseState, len(sorted))}
	for _, ex := range sorted {
		cp := ex
		cp.Sets = make([]models.PlannedSetConfig, len(ex.Sets))
		for i, c := range ex.Sets {
			cp.Sets[i] = models.PlannedSetConfig{ID: c.ID, SetCount: c.SetCount, SetValues: c.SetValues.Clone()}
		}
		slices.SortStableFunc(cp.Sets, func(a, b models.PlannedSetConfig) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
		e.order = append(e.order, ex.ID)
		e.states[ex.ID] = &exerciseState{exercise: cp, pos: AtSet(0)}
	}
	return e
}

// Len returns the number of exercises.
func (e *Engine) Len() int { return len(e.order) }

// ExerciseAt returns the id of the i-th exercise in order.
func (e *Engine) ExerciseAt(i int) (uuid.UUID, bool) {
	if i < 0 || i >= len(e.order) {
		return uuid.Nil, false
	}
	return e.order[i], true
}

// IDs returns exercise ids in traversal order.
func (e *Engine) IDs() []uuid.UUID {
	return slices.Clone(e.order)
}

func (st *exerciseState) plannedCount() int {
	n := 0
	for _, c := range st.exercise.Sets {
		if c.SetCount > 0 {
			n += c.SetCount
		}
	}
	return n
}

func (st *exerciseState) total() int {
	return st.plannedCount() + st.extra
}

func (st *exerciseState) planned() []models.SetInstance {
	rs := make([]runs.Run[models.SetValues], len(st.exercise.Sets))
	for i, c := range st.exercise.Sets {
		rs[i] = runs.Run[models.SetValues]{Count: c.SetCount, Value: c.SetValues}
	}
	vals := runs.Decode(rs)
	out := make([]models.SetInstance, len(vals))
	for i, v := range vals {
		out[i] = models.SetInstance{SetNumber: i + 1, SetValues: v.Clone()}
	}
	return out
}

// extraTemplate is what an appended set looks like: a copy of the last
// planned set, or the defaults when nothing is planned.
func (st *exerciseState) extraTemplate(planned []models.SetInstance) models.SetValues {
	if n := len(planned); n > 0 {
		return planned[n-1].SetValues.Clone()
	}
	return models.DefaultSetValues()
}

func (st *exerciseState) setAt(index int) (models.SetInstance, bool) {
	if index < 0 || index >= st.total() {
		return models.SetInstance{}, false
	}
	planned := st.planned()
	if index < len(planned) {
		return planned[index], true
	}
	return models.SetInstance{
		SetNumber: index + 1,
		Extra:     true,
		SetValues: st.extraTemplate(planned),
	}, true
}

func (st *exerciseState) ensureBaseSet() {
	if st.plannedCount() > 0 {
		return
	}
	var next int64 = 1
	for _, c := range st.exercise.Sets {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	st.exercise.Sets = append(st.exercise.Sets, models.PlannedSetConfig{
		ID:        next,
		SetCount:  1,
		SetValues: models.DefaultSetValues(),
	})
}

func (st *exerciseState) clearRest() {
	st.resting = false
	st.remaining = 0
}

// PlannedSequence expands the exercise's configs into numbered set instances.
// Extra sets are not included.
func (e *Engine) PlannedSequence(id uuid.UUID) []models.SetInstance {
	st, ok := e.states[id]
	if !ok {
		return nil
	}
	return st.planned()
}

// TotalSets is the planned count plus the extra-set count.
func (e *Engine) TotalSets(id uuid.UUID) int {
	st, ok := e.states[id]
	if !ok {
		return 0
	}
	return st.total()
}

// ExtraSets returns how many ad hoc sets were appended to the exercise.
func (e *Engine) ExtraSets(id uuid.UUID) int {
	st, ok := e.states[id]
	if !ok {
		return 0
	}
	return st.extra
}

// CurrentSet returns the set at the given 0-based index across planned and
// extra sets, or false when the index is out of range.
func (e *Engine) CurrentSet(id uuid.UUID, index int) (models.SetInstance, bool) {
	st, ok := e.states[id]
	if !ok {
		return models.SetInstance{}, false
	}
	return st.setAt(index)
}

// Complete records the set under the cursor as performed and advances the
// cursor, landing on AllDone after the last set. It does not start rest.
// Returns false if the cursor was already AllDone.
func (e *Engine) Complete(id uuid.UUID) (models.SetInstance, bool) {
	st, ok := e.states[id]
	if !ok {
		return models.SetInstance{}, false
	}
	st.ensureBaseSet()

	total := st.total()
	idx := st.pos.Index(total)
	set, ok := st.setAt(idx)
	if !ok {
		return models.SetInstance{}, false
	}
	st.performed = append(st.performed, set.SetValues.Clone())
	if idx >= total-1 {
		st.pos = AllDone()
	} else {
		st.pos = AtSet(idx + 1)
	}
	return set, true
}

// StartRest begins a countdown of sec seconds. No-op when sec <= 0.
func (e *Engine) StartRest(id uuid.UUID, sec int) {
	st, ok := e.states[id]
	if !ok || sec <= 0 {
		return
	}
	st.resting = true
	st.remaining = sec
}

// TickRest advances the countdown by one second, ending rest at zero.
func (e *Engine) TickRest(id uuid.UUID) {
	st, ok := e.states[id]
	if !ok || !st.resting {
		return
	}
	st.remaining--
	if st.remaining <= 0 {
		st.clearRest()
	}
}

// SkipRest ends the countdown immediately.
func (e *Engine) SkipRest(id uuid.UUID) {
	if st, ok := e.states[id]; ok {
		st.clearRest()
	}
}

// AddExtraSet appends one ad hoc set. If the exercise was AllDone the cursor
// moves onto the new set and rest is cleared.
func (e *Engine) AddExtraSet(id uuid.UUID) {
	st, ok := e.states[id]
	if !ok {
		return
	}
	st.ensureBaseSet()

	wasDone := st.pos.Done(st.total())
	st.extra++
	if wasDone {
		st.pos = AtSet(st.total() - 1)
		st.clearRest()
	}
}

// RemoveResult describes what RemoveOneSet changed.
type RemoveResult struct {
	Removed       bool
	TrimmedLedger bool
}

// RemoveOneSet drops an extra set if any, otherwise one set from the last
// config that still has sets. The performed ledger is trimmed to the new
// total, the cursor is clamped, and rest is cleared. Removed is false when
// nothing could be removed, in which case nothing changed.
func (e *Engine) RemoveOneSet(id uuid.UUID) RemoveResult {
	st, ok := e.states[id]
	if !ok {
		return RemoveResult{}
	}

	idx := st.pos.Index(st.total())
	if st.extra > 0 {
		st.extra--
	} else {
		removed := false
		for i := len(st.exercise.Sets) - 1; i >= 0; i-- {
			if st.exercise.Sets[i].SetCount > 0 {
				st.exercise.Sets[i].SetCount--
				removed = true
				break
			}
		}
		if !removed {
			return RemoveResult{}
		}
	}

	res := RemoveResult{Removed: true}
	total := st.total()
	if len(st.performed) > total {
		st.performed = st.performed[:total]
		res.TrimmedLedger = true
	}

	switch {
	case total == 0:
		st.pos = AtSet(0)
	case idx > total:
		st.pos = AllDone()
	case idx == total:
		st.pos = AtSet(total - 1)
	default:
		st.pos = AtSet(idx)
	}
	st.clearRest()
	return res
}

// CanRemoveAnySet reports whether at least one planned or extra set exists.
func (e *Engine) CanRemoveAnySet(id uuid.UUID) bool {
	return e.TotalSets(id) > 0
}

// EnsureBaseSet gives an exercise with no planned sets a single default set.
func (e *Engine) EnsureBaseSet(id uuid.UUID) {
	if st, ok := e.states[id]; ok {
		st.ensureBaseSet()
	}
}

// EditFirstSet overwrites reps and weight of the first planned config, even
// when that config currently holds no sets. Nil arguments keep the existing
// value. Performed sets are not touched.
func (e *Engine) EditFirstSet(id uuid.UUID, reps *int, weightKg *float64) {
	st, ok := e.states[id]
	if !ok {
		return
	}
	st.ensureBaseSet()

	cfg := &st.exercise.Sets[0]
	if reps != nil {
		r := *reps
		cfg.Reps = &r
	}
	if weightKg != nil {
		w := *weightKg
		cfg.WeightKg = &w
	}
}

// Performed returns a copy of the exercise's ledger in completion order.
func (e *Engine) Performed(id uuid.UUID) []models.SetValues {
	st, ok := e.states[id]
	if !ok {
		return nil
	}
	out := make([]models.SetValues, len(st.performed))
	for i, v := range st.performed {
		out[i] = v.Clone()
	}
	return out
}

// Finalize run-length encodes the performed ledger into blocks ready to be
// written with ReplaceSets.
func (e *Engine) Finalize(id uuid.UUID) []models.SetBlock {
	st, ok := e.states[id]
	if !ok {
		return nil
	}
	rs := runs.Encode(st.performed, models.SetValues.Equal)
	blocks := make([]models.SetBlock, len(rs))
	for i, r := range rs {
		blocks[i] = models.SetBlock{Count: r.Count, SetValues: r.Value.Clone()}
	}
	return blocks
}

package progression

import (
	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// ExerciseState is a read-only snapshot of one exercise's session state.
type ExerciseState struct {
	ExerciseID    uuid.UUID           `json:"exercise_id"`
	Name          string              `json:"name"`
	Notes         *string             `json:"notes,omitempty"`
	OrderIndex    int                 `json:"order_index"`
	Phase         Phase               `json:"phase"`
	SetIndex      int                 `json:"set_index"`
	Resting       bool                `json:"resting"`
	RemainingRest int                 `json:"remaining_rest_sec"`
	PlannedSets   int                 `json:"planned_sets"`
	ExtraSets     int                 `json:"extra_sets"`
	TotalSets     int                 `json:"total_sets"`
	Current       *models.SetInstance `json:"current,omitempty"`
	Performed     []models.SetValues  `json:"performed"`
}

// State snapshots an exercise. The zero value is returned for unknown ids.
func (e *Engine) State(id uuid.UUID) ExerciseState {
	st, ok := e.states[id]
	if !ok {
		return ExerciseState{}
	}
	total := st.total()
	idx := st.pos.Index(total)

	s := ExerciseState{
		ExerciseID:    id,
		Name:          st.exercise.DisplayName(),
		Notes:         st.exercise.Notes,
		OrderIndex:    st.exercise.OrderIndex,
		SetIndex:      idx,
		Resting:       st.resting,
		RemainingRest: st.remaining,
		PlannedSets:   st.plannedCount(),
		ExtraSets:     st.extra,
		TotalSets:     total,
		Performed:     e.Performed(id),
	}
	switch {
	case st.resting:
		s.Phase = PhaseResting
	case total > 0 && st.pos.Done(total):
		s.Phase = PhaseAllDone
	default:
		s.Phase = PhaseInProgress
	}
	if set, ok := st.setAt(idx); ok {
		s.Current = &set
	}
	return s
}

// IsDone reports whether every set of the exercise has been completed.
// An exercise with no sets is not done; completing it materializes a default set.
func (e *Engine) IsDone(id uuid.UUID) bool {
	st, ok := e.states[id]
	if !ok {
		return false
	}
	total := st.total()
	return total > 0 && st.pos.Done(total)
}

// IsResting reports whether the exercise's rest countdown is running.
func (e *Engine) IsResting(id uuid.UUID) bool {
	st, ok := e.states[id]
	return ok && st.resting
}

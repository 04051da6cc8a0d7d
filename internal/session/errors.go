package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPlanLoad          = errors.New("failed to load workout")
	ErrPersistence       = errors.New("failed to save workout")
	ErrRemovalRejected   = errors.New("no sets to remove")
	ErrRemovalBlocked    = errors.New("sets cannot be removed right now")
	ErrNavigationBlocked = errors.New("cannot switch exercise right now")
	ErrResting           = errors.New("rest in progress")
	ErrAllDone           = errors.New("all sets already completed")
	ErrSaving            = errors.New("save in progress")
	ErrFinished          = errors.New("session already finished")
	ErrNotFound          = errors.New("session not found")
	ErrNoExercises       = errors.New("workout has no exercises")
)

// PlanLoadError is returned when FetchPlan fails. No session exists yet.
type PlanLoadError struct {
	WorkoutID uuid.UUID
	Err       error
}

func (e *PlanLoadError) Error() string {
	return fmt.Sprintf("loading plan for workout %s: %v", e.WorkoutID, e.Err)
}

func (e *PlanLoadError) Unwrap() []error { return []error{ErrPlanLoad, e.Err} }

// PersistenceError is returned when ReplaceSets fails for one exercise during
// finish. Exercises written before it are not rolled back.
type PersistenceError struct {
	WorkoutExerciseID uuid.UUID
	Err               error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving sets for workout exercise %s: %v", e.WorkoutExerciseID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

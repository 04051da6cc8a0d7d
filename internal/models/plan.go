package models

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied to a synthesized set when an exercise has no planned sets.
const (
	DefaultReps     = 10
	DefaultWeightKg = 0.0
	DefaultRestSec  = 60
)

// SetValues are the prescribed (or performed) attributes of one set.
// Nil means the attribute was not specified.
type SetValues struct {
	Reps     *int     `json:"reps"`
	WeightKg *float64 `json:"weight_kg"`
	RPE      *float64 `json:"rpe"`
	RestSec  *int     `json:"rest_sec"`
}

// DefaultSetValues returns 10 reps at 0 kg with 60 s rest and no RPE.
func DefaultSetValues() SetValues {
	reps, weight, rest := DefaultReps, DefaultWeightKg, DefaultRestSec
	return SetValues{Reps: &reps, WeightKg: &weight, RestSec: &rest}
}

// Rest returns the rest period in seconds, 0 when unset.
func (v SetValues) Rest() int {
	if v.RestSec == nil {
		return 0
	}
	return *v.RestSec
}

// Equal compares by value, treating two nil fields as equal.
func (v SetValues) Equal(o SetValues) bool {
	return eqPtr(v.Reps, o.Reps) && eqPtr(v.WeightKg, o.WeightKg) &&
		eqPtr(v.RPE, o.RPE) && eqPtr(v.RestSec, o.RestSec)
}

// Clone returns a copy that shares no pointers with v.
func (v SetValues) Clone() SetValues {
	return SetValues{
		Reps:     clonePtr(v.Reps),
		WeightKg: clonePtr(v.WeightKg),
		RPE:      clonePtr(v.RPE),
		RestSec:  clonePtr(v.RestSec),
	}
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// PlannedSetConfig is a run of SetCount identical planned sets.
type PlannedSetConfig struct {
	ID       int64 `json:"id"`
	SetCount int   `json:"set_count"`
	SetValues
}

// PlannedExercise is one exercise of a workout plan. ID identifies the
// workout-exercise row, not the catalog exercise.
type PlannedExercise struct {
	ID         uuid.UUID          `json:"id"`
	WorkoutID  uuid.UUID          `json:"workout_id"`
	OrderIndex int                `json:"order_index"`
	Name       string             `json:"name"`
	CustomName *string            `json:"custom_name,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
	Sets       []PlannedSetConfig `json:"sets"`
}

// DisplayName prefers the custom name over the catalog name.
func (e PlannedExercise) DisplayName() string {
	if e.CustomName != nil && *e.CustomName != "" {
		return *e.CustomName
	}
	return e.Name
}

// SetInstance is one expanded set, numbered from 1 within its exercise.
type SetInstance struct {
	SetNumber int  `json:"set_number"`
	Extra     bool `json:"extra,omitempty"`
	SetValues
}

// SetBlock is a run of Count identical performed sets, the unit written
// to the sets table. Its Count is stored in the set_number column.
type SetBlock struct {
	Count int `json:"count"`
	SetValues
}

// WorkoutRow is a row of the workouts table.
type WorkoutRow struct {
	ID         uuid.UUID  `json:"id"`
	UserID     int        `json:"user_id"`
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// WorkoutSetRow is a stored set block joined with its exercise, used for history.
type WorkoutSetRow struct {
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	OrderIndex        int       `json:"order_index"`
	ExerciseName      string    `json:"exercise_name"`
	SetID             int64     `json:"set_id"`
	SetNumber         int       `json:"set_number"`
	SetValues
}

// NewWorkout is an authored plan ready to be stored.
type NewWorkout struct {
	Name      string        `json:"name" yaml:"name"`
	Notes     *string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Exercises []NewExercise `json:"exercises" yaml:"exercises"`
}

// NewExercise is one exercise of an authored plan. Order follows slice position.
type NewExercise struct {
	Name       string         `json:"name" yaml:"name"`
	CustomName *string        `json:"custom_name,omitempty" yaml:"custom_name,omitempty"`
	Notes      *string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Sets       []NewSetConfig `json:"sets" yaml:"sets"`
}

// NewSetConfig is one authored config row.
type NewSetConfig struct {
	Count    int      `json:"count" yaml:"count"`
	Reps     *int     `json:"reps,omitempty" yaml:"reps,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	RPE      *float64 `json:"rpe,omitempty" yaml:"rpe,omitempty"`
	RestSec  *int     `json:"rest_sec,omitempty" yaml:"rest_sec,omitempty"`
}

// Values returns the config's attributes as SetValues.
func (c NewSetConfig) Values() SetValues {
	return SetValues{Reps: c.Reps, WeightKg: c.WeightKg, RPE: c.RPE, RestSec: c.RestSec}
}

// DataStats summarizes a user's stored workouts.
type DataStats struct {
	TotalWorkouts    int64          `json:"total_workouts"`
	FinishedWorkouts int64          `json:"finished_workouts"`
	TotalSets        int64          `json:"total_sets"`
	EarliestWorkout  *time.Time     `json:"earliest_workout"`
	LatestWorkout    *time.Time     `json:"latest_workout"`
	TopExercises     []ExerciseStat `json:"top_exercises"`
}

// ExerciseStat counts the finished sets of one exercise.
type ExerciseStat struct {
	Name string `json:"name"`
	Sets int64  `json:"sets"`
}

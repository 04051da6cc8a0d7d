package models

import (
	"errors"
	"fmt"
)

var (
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")
	ErrInvalidPlan             = errors.New("invalid plan")
)

// MaxSetsPerConfig bounds a single config row's set count.
const MaxSetsPerConfig = 99

// Validate checks an authored plan before it is stored.
func (w NewWorkout) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("%w: workout name is required", ErrInvalidPlan)
	}
	for i, ex := range w.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("%w: exercise %d has no name", ErrInvalidPlan, i+1)
		}
		for j, s := range ex.Sets {
			if s.Count < 0 || s.Count > MaxSetsPerConfig {
				return fmt.Errorf("%w: exercise %d set %d: count %d out of range 0-%d",
					ErrInvalidPlan, i+1, j+1, s.Count, MaxSetsPerConfig)
			}
			if s.Reps != nil && *s.Reps < 0 {
				return fmt.Errorf("%w: exercise %d set %d: negative reps", ErrInvalidPlan, i+1, j+1)
			}
			if s.WeightKg != nil && *s.WeightKg < 0 {
				return fmt.Errorf("%w: exercise %d set %d: negative weight", ErrInvalidPlan, i+1, j+1)
			}
			if s.RestSec != nil && *s.RestSec < 0 {
				return fmt.Errorf("%w: exercise %d set %d: negative rest", ErrInvalidPlan, i+1, j+1)
			}
		}
	}
	return nil
}

// ValidateBlocks checks blocks before they are written.
func ValidateBlocks(blocks []SetBlock) error {
	for i, b := range blocks {
		if b.Count <= 0 {
			return fmt.Errorf("%w: block %d has count %d", ErrInvalidPlan, i+1, b.Count)
		}
	}
	return nil
}

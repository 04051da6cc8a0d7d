package session

import (
	"context"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// Backend is the store a session reads its plan from and writes its
// performed sets to. *storage.DB, *localstore.Store and *remote.Client
// all satisfy it.
type Backend interface {
	// FetchPlan returns the workout's exercises ordered by order index, each
	// with its set configs ordered by id. It is all-or-nothing.
	FetchPlan(ctx context.Context, workoutID uuid.UUID) ([]models.PlannedExercise, error)
	// ReplaceSets deletes every set row of the workout exercise and inserts
	// one row per block, storing block.Count as the row's set_number.
	ReplaceSets(ctx context.Context, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error
}

// Finisher is implemented by backends that record when a workout was
// completed. It is called once after every exercise has been written.
type Finisher interface {
	MarkFinished(ctx context.Context, workoutID uuid.UUID, at time.Time) error
}

// Owners is implemented by backends that record which user a workout
// belongs to. Manager.Start refuses workouts owned by another user.
type Owners interface {
	WorkoutOwner(ctx context.Context, workoutID uuid.UUID) (int, error)
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkoutOwner returns the id of the user a workout belongs to.
func (db *DB) WorkoutOwner(ctx context.Context, workoutID uuid.UUID) (int, error) {
	var userID int
	err := db.Pool.QueryRow(ctx, `SELECT user_id FROM workouts WHERE id = $1`, workoutID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrWorkoutNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying workout owner: %w", err)
	}
	return userID, nil
}

// WorkoutExerciseOwner returns the owner of the workout a workout exercise
// belongs to.
func (db *DB) WorkoutExerciseOwner(ctx context.Context, workoutExerciseID uuid.UUID) (int, error) {
	var userID int
	err := db.Pool.QueryRow(ctx,
		`SELECT w.user_id FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE we.id = $1`,
		workoutExerciseID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrWorkoutExerciseNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying workout exercise owner: %w", err)
	}
	return userID, nil
}

package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReplaceSets deletes all set rows of a workout exercise and inserts one row
// per block, storing block.Count in set_number. Safe to retry.
func (db *DB) ReplaceSets(ctx context.Context, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error {
	if err := models.ValidateBlocks(blocks); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM workout_exercises WHERE id = $1)`,
			workoutExerciseID).Scan(&exists); err != nil {
			return fmt.Errorf("checking workout exercise: %w", err)
		}
		if !exists {
			return models.ErrWorkoutExerciseNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sets WHERE workout_exercise_id = $1`, workoutExerciseID); err != nil {
			return fmt.Errorf("deleting sets: %w", err)
		}
		return insertSetRows(ctx, tx, workoutExerciseID, blocks)
	})
}

// insertSetRows batch-inserts blocks in order so ascending ids follow slice order.
func insertSetRows(ctx context.Context, tx pgx.Tx, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	query := `INSERT INTO sets (workout_exercise_id, set_number, reps, weight_kg, rpe, rest_sec) VALUES `
	args := make([]any, 0, len(blocks)*6)
	valueStrings := make([]string, 0, len(blocks))

	for i, b := range blocks {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, workoutExerciseID, b.Count, b.Reps, b.WeightKg, b.RPE, b.RestSec)
	}

	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting sets: %w", err)
	}
	return nil
}

// QueryWorkoutSets returns every stored set block of a user's workout,
// ordered by exercise then row id. Another user's workout yields no rows.
func (db *DB) QueryWorkoutSets(ctx context.Context, userID int, workoutID uuid.UUID) ([]models.WorkoutSetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.order_index, COALESCE(NULLIF(we.custom_name, ''), e.name),
		 s.id, s.set_number, s.reps, s.weight_kg, s.rpe, s.rest_sec
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1 AND w.user_id = $2
		 ORDER BY we.order_index ASC, s.id ASC`,
		workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSetRow
	for rows.Next() {
		var r models.WorkoutSetRow
		if err := rows.Scan(&r.WorkoutExerciseID, &r.OrderIndex, &r.ExerciseName,
			&r.SetID, &r.SetNumber, &r.Reps, &r.WeightKg, &r.RPE, &r.RestSec); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

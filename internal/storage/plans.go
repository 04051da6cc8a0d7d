package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FetchPlan loads a workout's exercises ordered by order_index, each with its
// set configs ordered by id. Both reads run in one repeatable-read
// transaction so the plan is never a mix of two versions.
func (db *DB) FetchPlan(ctx context.Context, workoutID uuid.UUID) ([]models.PlannedExercise, error) {
	var plan []models.PlannedExercise
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := pgx.BeginTxFunc(ctx, db.Pool, opts, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workouts WHERE id = $1)`, workoutID).Scan(&exists); err != nil {
			return fmt.Errorf("checking workout: %w", err)
		}
		if !exists {
			return models.ErrWorkoutNotFound
		}

		rows, err := tx.Query(ctx,
			`SELECT we.id, we.workout_id, we.order_index, e.name, we.custom_name, we.notes
			 FROM workout_exercises we
			 JOIN exercises e ON e.id = we.exercise_id
			 WHERE we.workout_id = $1
			 ORDER BY we.order_index ASC`,
			workoutID)
		if err != nil {
			return fmt.Errorf("querying workout exercises: %w", err)
		}
		defer rows.Close()

		index := make(map[uuid.UUID]int)
		for rows.Next() {
			var ex models.PlannedExercise
			if err := rows.Scan(&ex.ID, &ex.WorkoutID, &ex.OrderIndex, &ex.Name, &ex.CustomName, &ex.Notes); err != nil {
				return fmt.Errorf("scanning workout exercise: %w", err)
			}
			index[ex.ID] = len(plan)
			plan = append(plan, ex)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		setRows, err := tx.Query(ctx,
			`SELECT s.id, s.workout_exercise_id, s.set_number, s.reps, s.weight_kg, s.rpe, s.rest_sec
			 FROM sets s
			 JOIN workout_exercises we ON we.id = s.workout_exercise_id
			 WHERE we.workout_id = $1
			 ORDER BY s.id ASC`,
			workoutID)
		if err != nil {
			return fmt.Errorf("querying sets: %w", err)
		}
		defer setRows.Close()

		for setRows.Next() {
			var c models.PlannedSetConfig
			var exID uuid.UUID
			if err := setRows.Scan(&c.ID, &exID, &c.SetCount, &c.Reps, &c.WeightKg, &c.RPE, &c.RestSec); err != nil {
				return fmt.Errorf("scanning set: %w", err)
			}
			i, ok := index[exID]
			if !ok {
				continue
			}
			plan[i].Sets = append(plan[i].Sets, c)
		}
		return setRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// CreateWorkout stores an authored plan and returns the new workout id.
// Catalog exercises are created on first use.
func (db *DB) CreateWorkout(ctx context.Context, userID int, w models.NewWorkout) (uuid.UUID, error) {
	if err := w.Validate(); err != nil {
		return uuid.Nil, err
	}
	workoutID := uuid.New()

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, name, kind, notes) VALUES ($1, $2, $3, 'strength', $4)`,
			workoutID, userID, w.Name, w.Notes); err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}

		for i, ex := range w.Exercises {
			var exerciseID int64
			if err := tx.QueryRow(ctx,
				`INSERT INTO exercises (name) VALUES ($1)
				 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				 RETURNING id`,
				ex.Name).Scan(&exerciseID); err != nil {
				return fmt.Errorf("upserting exercise %q: %w", ex.Name, err)
			}

			weID := uuid.New()
			if _, err := tx.Exec(ctx,
				`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, custom_name, notes)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				weID, workoutID, exerciseID, i, ex.CustomName, ex.Notes); err != nil {
				return fmt.Errorf("inserting workout exercise %q: %w", ex.Name, err)
			}

			blocks := make([]models.SetBlock, len(ex.Sets))
			for j, s := range ex.Sets {
				blocks[j] = models.SetBlock{Count: s.Count, SetValues: s.Values()}
			}
			if err := insertSetRows(ctx, tx, weID, blocks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return workoutID, nil
}

// ListWorkouts returns a user's most recent workouts, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID, limit int) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, kind, notes, created_at, finished_at
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Kind, &w.Notes, &w.CreatedAt, &w.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// MarkFinished stamps the workout's finished_at.
func (db *DB) MarkFinished(ctx context.Context, workoutID uuid.UUID, at time.Time) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE workouts SET finished_at = $2 WHERE id = $1`, workoutID, at)
	if err != nil {
		return fmt.Errorf("marking workout finished: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWorkoutNotFound
	}
	return nil
}

// DeleteWorkout removes a workout and, by cascade, its exercises and sets.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, workoutID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWorkoutNotFound
	}
	return nil
}

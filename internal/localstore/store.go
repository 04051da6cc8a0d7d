// Package localstore is a single-file SQLite backend for running SetLog
// without a Postgres server. It stores the same plans and set blocks as
// the storage package.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	login        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	last_seen    INTEGER NOT NULL
);
INSERT OR IGNORE INTO users (id, login, display_name, last_seen) VALUES (1, 'local', 'Local Dev User', 0);
CREATE TABLE IF NOT EXISTS exercises (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS workouts (
	id          TEXT PRIMARY KEY,
	user_id     INTEGER NOT NULL DEFAULT 1,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT 'strength',
	notes       TEXT,
	created_at  INTEGER NOT NULL,
	finished_at INTEGER
);
CREATE TABLE IF NOT EXISTS workout_exercises (
	id          TEXT PRIMARY KEY,
	workout_id  TEXT NOT NULL REFERENCES workouts (id) ON DELETE CASCADE,
	exercise_id INTEGER NOT NULL REFERENCES exercises (id),
	order_index INTEGER NOT NULL,
	custom_name TEXT,
	notes       TEXT,
	UNIQUE (workout_id, order_index)
);
CREATE TABLE IF NOT EXISTS sets (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_exercise_id TEXT NOT NULL REFERENCES workout_exercises (id) ON DELETE CASCADE,
	set_number          INTEGER NOT NULL CHECK (set_number >= 0),
	reps                INTEGER,
	weight_kg           REAL,
	rpe                 REAL,
	rest_sec            INTEGER
);
CREATE INDEX IF NOT EXISTS sets_workout_exercise_idx ON sets (workout_exercise_id, id);
`

// Store is a SQLite-backed plan and set store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// A single connection serializes writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// FetchPlan loads a workout's exercises ordered by order_index with their
// set configs ordered by id.
func (s *Store) FetchPlan(ctx context.Context, workoutID uuid.UUID) ([]models.PlannedExercise, error) {
	var plan []models.PlannedExercise
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts WHERE id = ?`, workoutID.String()).Scan(&n); err != nil {
			return fmt.Errorf("checking workout: %w", err)
		}
		if n == 0 {
			return models.ErrWorkoutNotFound
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT we.id, we.workout_id, we.order_index, e.name, we.custom_name, we.notes
			 FROM workout_exercises we
			 JOIN exercises e ON e.id = we.exercise_id
			 WHERE we.workout_id = ?
			 ORDER BY we.order_index ASC`,
			workoutID.String())
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

		setRows, err := tx.QueryContext(ctx,
			`SELECT s.id, s.workout_exercise_id, s.set_number, s.reps, s.weight_kg, s.rpe, s.rest_sec
			 FROM sets s
			 JOIN workout_exercises we ON we.id = s.workout_exercise_id
			 WHERE we.workout_id = ?
			 ORDER BY s.id ASC`,
			workoutID.String())
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
			if i, ok := index[exID]; ok {
				plan[i].Sets = append(plan[i].Sets, c)
			}
		}
		return setRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ReplaceSets deletes all set rows of a workout exercise and inserts one row
// per block, storing block.Count in set_number.
func (s *Store) ReplaceSets(ctx context.Context, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error {
	if err := models.ValidateBlocks(blocks); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM workout_exercises WHERE id = ?`,
			workoutExerciseID.String()).Scan(&n); err != nil {
			return fmt.Errorf("checking workout exercise: %w", err)
		}
		if n == 0 {
			return models.ErrWorkoutExerciseNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sets WHERE workout_exercise_id = ?`, workoutExerciseID.String()); err != nil {
			return fmt.Errorf("deleting sets: %w", err)
		}
		return insertSets(ctx, tx, workoutExerciseID, blocks)
	})
}

func insertSets(ctx context.Context, tx *sql.Tx, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error {
	for _, b := range blocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sets (workout_exercise_id, set_number, reps, weight_kg, rpe, rest_sec) VALUES (?, ?, ?, ?, ?, ?)`,
			workoutExerciseID.String(), b.Count, b.Reps, b.WeightKg, b.RPE, b.RestSec); err != nil {
			return fmt.Errorf("inserting set: %w", err)
		}
	}
	return nil
}

// CreateWorkout stores an authored plan and returns the new workout id.
func (s *Store) CreateWorkout(ctx context.Context, userID int, w models.NewWorkout) (uuid.UUID, error) {
	if err := w.Validate(); err != nil {
		return uuid.Nil, err
	}
	workoutID := uuid.New()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workouts (id, user_id, name, kind, notes, created_at) VALUES (?, ?, ?, 'strength', ?, ?)`,
			workoutID.String(), userID, w.Name, w.Notes, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}

		for i, ex := range w.Exercises {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exercises (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, ex.Name); err != nil {
				return fmt.Errorf("inserting exercise %q: %w", ex.Name, err)
			}
			var exerciseID int64
			if err := tx.QueryRowContext(ctx, `SELECT id FROM exercises WHERE name = ?`, ex.Name).Scan(&exerciseID); err != nil {
				return fmt.Errorf("looking up exercise %q: %w", ex.Name, err)
			}

			weID := uuid.New()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, custom_name, notes)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				weID.String(), workoutID.String(), exerciseID, i, ex.CustomName, ex.Notes); err != nil {
				return fmt.Errorf("inserting workout exercise %q: %w", ex.Name, err)
			}

			blocks := make([]models.SetBlock, len(ex.Sets))
			for j, c := range ex.Sets {
				blocks[j] = models.SetBlock{Count: c.Count, SetValues: c.Values()}
			}
			if err := insertSets(ctx, tx, weID, blocks); err != nil {
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
func (s *Store) ListWorkouts(ctx context.Context, userID, limit int) ([]models.WorkoutRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind, notes, created_at, finished_at
		 FROM workouts
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		var created int64
		var finished sql.NullInt64
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Kind, &w.Notes, &created, &finished); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		w.CreatedAt = time.UnixMilli(created).UTC()
		if finished.Valid {
			t := time.UnixMilli(finished.Int64).UTC()
			w.FinishedAt = &t
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// MarkFinished stamps the workout's finished time.
func (s *Store) MarkFinished(ctx context.Context, workoutID uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE workouts SET finished_at = ? WHERE id = ?`, at.UnixMilli(), workoutID.String())
	if err != nil {
		return fmt.Errorf("marking workout finished: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking workout finished: %w", err)
	}
	if n == 0 {
		return models.ErrWorkoutNotFound
	}
	return nil
}

// WorkoutOwner returns the id of the user a workout belongs to.
func (s *Store) WorkoutOwner(ctx context.Context, workoutID uuid.UUID) (int, error) {
	var userID int
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM workouts WHERE id = ?`, workoutID.String()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrWorkoutNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying workout owner: %w", err)
	}
	return userID, nil
}

// WorkoutExerciseOwner returns the owner of the workout a workout exercise
// belongs to.
func (s *Store) WorkoutExerciseOwner(ctx context.Context, workoutExerciseID uuid.UUID) (int, error) {
	var userID int
	err := s.db.QueryRowContext(ctx,
		`SELECT w.user_id FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE we.id = ?`,
		workoutExerciseID.String()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrWorkoutExerciseNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying workout exercise owner: %w", err)
	}
	return userID, nil
}

// ResolveUser maps a tailnet login to a user id, creating the user on first
// sight.
func (s *Store) ResolveUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (login, display_name, last_seen) VALUES (?, ?, ?)
		 ON CONFLICT (login) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)
		 RETURNING id`,
		login, displayName, time.Now().Unix()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving user %s: %w", login, err)
	}
	return id, nil
}

// QueryWorkoutSets returns every stored set block of a user's workout,
// ordered by exercise then row id. Another user's workout yields no rows.
func (s *Store) QueryWorkoutSets(ctx context.Context, userID int, workoutID uuid.UUID) ([]models.WorkoutSetRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT we.id, we.order_index, COALESCE(NULLIF(we.custom_name, ''), e.name),
		 s.id, s.set_number, s.reps, s.weight_kg, s.rpe, s.rest_sec
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = ? AND w.user_id = ?
		 ORDER BY we.order_index ASC, s.id ASC`,
		workoutID.String(), userID)
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

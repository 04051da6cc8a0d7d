package storage

import (
	"context"
	"fmt"

	"github.com/claude/setlog/internal/models"
)

const topExercises = 10

// GetDataStats returns aggregate statistics for a user's stored workouts.
// Set counts only include finished workouts, since an unfinished workout's
// rows are still the plan.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*models.DataStats, error) {
	stats := &models.DataStats{TopExercises: []models.ExerciseStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(finished_at), MIN(created_at), MAX(created_at)
		 FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.FinishedWorkouts, &stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT COALESCE(NULLIF(we.custom_name, ''), e.name) AS name, SUM(s.set_number)
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE w.user_id = $1 AND w.finished_at IS NOT NULL
		 GROUP BY 1
		 ORDER BY 2 DESC, 1 ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.ExerciseStat
		if err := rows.Scan(&s.Name, &s.Sets); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TotalSets += s.Sets
		if len(stats.TopExercises) < topExercises {
			stats.TopExercises = append(stats.TopExercises, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

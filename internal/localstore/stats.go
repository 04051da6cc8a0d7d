package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/claude/setlog/internal/models"
)

const topExercises = 10

// GetDataStats returns aggregate statistics for a user's stored workouts.
// Set counts only include finished workouts.
func (s *Store) GetDataStats(ctx context.Context, userID int) (*models.DataStats, error) {
	stats := &models.DataStats{TopExercises: []models.ExerciseStat{}}

	var earliest, latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(finished_at), MIN(created_at), MAX(created_at)
		 FROM workouts WHERE user_id = ?`, userID,
	).Scan(&stats.TotalWorkouts, &stats.FinishedWorkouts, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}
	if earliest.Valid {
		t := time.UnixMilli(earliest.Int64).UTC()
		stats.EarliestWorkout = &t
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64).UTC()
		stats.LatestWorkout = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(we.custom_name, ''), e.name) AS name, SUM(s.set_number) AS total
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE w.user_id = ? AND w.finished_at IS NOT NULL
		 GROUP BY name
		 ORDER BY total DESC, name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.ExerciseStat
		if err := rows.Scan(&st.Name, &st.Sets); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TotalSets += st.Sets
		if len(stats.TopExercises) < topExercises {
			stats.TopExercises = append(stats.TopExercises, st)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

package mcp

import (
	"context"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// DataSource is the workout history the MCP tools read. *storage.DB and
// *localstore.Store serve it locally, *remote.Client over the REST API.
type DataSource interface {
	ListWorkouts(ctx context.Context, userID, limit int) ([]models.WorkoutRow, error)
	QueryWorkoutSets(ctx context.Context, userID int, workoutID uuid.UUID) ([]models.WorkoutSetRow, error)
}

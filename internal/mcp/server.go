package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/setlog/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server that drives live workout sessions and reads
// workout history.
func New(sessions *session.Manager, ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("SetLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("SetLog strength workout logger. Start a session for a planned workout, then complete sets, rest, "+
			"add or remove sets and move between exercises. Finishing a session saves the performed sets."),
	)

	h := &handlers{sessions: sessions, ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkoutSets, Handler: h.getWorkoutSets},
		server.ServerTool{Tool: toolStartSession, Handler: h.startSession},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolCompleteSet, Handler: h.completeSet},
		server.ServerTool{Tool: toolSkipRest, Handler: h.skipRest},
		server.ServerTool{Tool: toolAddSet, Handler: h.addSet},
		server.ServerTool{Tool: toolRemoveSet, Handler: h.removeSet},
		server.ServerTool{Tool: toolEditFirstSet, Handler: h.editFirstSet},
		server.ServerTool{Tool: toolNextExercise, Handler: h.nextExercise},
		server.ServerTool{Tool: toolPrevExercise, Handler: h.prevExercise},
		server.ServerTool{Tool: toolFinishSession, Handler: h.finishSession},
		server.ServerTool{Tool: toolAbandonSession, Handler: h.abandonSession},
	)

	s.AddResources(
		server.ServerResource{Resource: resLiveSessions, Handler: h.liveSessions},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	sessions *session.Manager
	ds       DataSource
	log      *slog.Logger
}

// --- Resource definitions ---

var resLiveSessions = mcp.NewResource(
	"setlog://sessions",
	"Live Sessions",
	mcp.WithResourceDescription("Workout sessions currently in progress, with per-exercise cursor, rest and performed sets"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"setlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The 20 most recently planned workouts"),
	mcp.WithMIMEType("application/json"),
)

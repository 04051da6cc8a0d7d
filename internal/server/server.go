package server

import (
	"context"
	"log/slog"
	"net/http"

	setlogmcp "github.com/claude/setlog/internal/mcp"
	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Store is the plan store behind the API. *storage.DB and *localstore.Store
// satisfy it.
type Store interface {
	session.Backend
	session.Finisher
	CreateWorkout(ctx context.Context, userID int, w models.NewWorkout) (uuid.UUID, error)
	ListWorkouts(ctx context.Context, userID, limit int) ([]models.WorkoutRow, error)
	QueryWorkoutSets(ctx context.Context, userID int, workoutID uuid.UUID) ([]models.WorkoutSetRow, error)
	WorkoutOwner(ctx context.Context, workoutID uuid.UUID) (int, error)
	WorkoutExerciseOwner(ctx context.Context, workoutExerciseID uuid.UUID) (int, error)
	ResolveUser(ctx context.Context, login, displayName string) (int, error)
	GetDataStats(ctx context.Context, userID int) (*models.DataStats, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	sessions *session.Manager
	log      *slog.Logger
	apiKey   string
	router   chi.Router
	whois    WhoIsFunc
}

// New creates a new Server with all routes configured.
func New(store Store, sessions *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the dev user to the tailnet
// peer reported by whois. Call it before serving.
func (s *Server) SetTailscale(whois WhoIsFunc) {
	s.whois = whois
}

// MountMCP serves m over streamable HTTP at /mcp. Tool calls see the
// request's user id.
func (s *Server) MountMCP(m *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(m,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return setlogmcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
	s.router.Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/api/v1/me", s.handleMe)

	// Plan store endpoints (API key required). Sessions on other hosts
	// read and write through these.
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Get("/api/v1/workouts/{id}/plan", s.handleFetchPlan)
		r.Put("/api/v1/workout-exercises/{id}/sets", s.handleReplaceSets)
		r.Post("/api/v1/workouts/{id}/finish", s.handleMarkFinished)
		r.Post("/api/v1/workouts", s.handleCreateWorkout)
		r.Get("/api/v1/workouts", s.handleListWorkouts)
		r.Get("/api/v1/workouts/{id}/sets", s.handleWorkoutSets)
		r.Get("/api/v1/stats", s.handleStats)
	})

	// Live sessions (no key, tsnet handles access)
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleStartSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleAbandonSession)
			r.Post("/complete", s.handleCompleteSet)
			r.Post("/rest/skip", s.handleSkipRest)
			r.Post("/sets/add", s.handleAddSet)
			r.Post("/sets/remove", s.handleRemoveSet)
			r.Post("/first-set", s.handleEditFirstSet)
			r.Post("/editing", s.handleSetEditing)
			r.Post("/next", s.handleNext)
			r.Post("/prev", s.handlePrev)
			r.Post("/swipe", s.handleSwipe)
			r.Post("/finish", s.handleFinishSession)
		})
	})
}

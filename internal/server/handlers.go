package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// owned checks that the caller owns id. Resources of other users are
// answered with notFound so their existence is not revealed.
func (s *Server) owned(w http.ResponseWriter, r *http.Request, id uuid.UUID,
	owner func(context.Context, uuid.UUID) (int, error), notFound error) bool {
	uid, err := owner(r.Context(), id)
	if err == nil && uid != userIDFromContext(r) {
		err = notFound
	}
	if err != nil {
		s.writeErr(w, "check owner", err)
		return false
	}
	return true
}

func (s *Server) handleFetchPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r)
	if !ok || !s.owned(w, r, id, s.store.WorkoutOwner, models.ErrWorkoutNotFound) {
		return
	}
	plan, err := s.store.FetchPlan(r.Context(), id)
	if err != nil {
		s.writeErr(w, "fetch plan", err)
		return
	}
	if plan == nil {
		plan = []models.PlannedExercise{}
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleReplaceSets(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r)
	if !ok || !s.owned(w, r, id, s.store.WorkoutExerciseOwner, models.ErrWorkoutExerciseNotFound) {
		return
	}
	var blocks []models.SetBlock
	if err := json.NewDecoder(r.Body).Decode(&blocks); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.store.ReplaceSets(r.Context(), id, blocks); err != nil {
		s.writeErr(w, "replace sets", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkFinished(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r)
	if !ok || !s.owned(w, r, id, s.store.WorkoutOwner, models.ErrWorkoutNotFound) {
		return
	}
	var body struct {
		FinishedAt *time.Time `json:"finished_at"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	at := time.Now()
	if body.FinishedAt != nil {
		at = *body.FinishedAt
	}
	if err := s.store.MarkFinished(r.Context(), id, at); err != nil {
		s.writeErr(w, "mark finished", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var in models.NewWorkout
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := s.store.CreateWorkout(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeErr(w, "create workout", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	rows, err := s.store.ListWorkouts(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeErr(w, "list workouts", err)
		return
	}
	if rows == nil {
		rows = []models.WorkoutRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleWorkoutSets(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r)
	if !ok || !s.owned(w, r, id, s.store.WorkoutOwner, models.ErrWorkoutNotFound) {
		return
	}
	rows, err := s.store.QueryWorkoutSets(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeErr(w, "query workout sets", err)
		return
	}
	if rows == nil {
		rows = []models.WorkoutSetRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeErr(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func uuidParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrPersistence):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, models.ErrWorkoutNotFound),
		errors.Is(err, models.ErrWorkoutExerciseNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrPlanLoad):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrInvalidPlan):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNavigationBlocked),
		errors.Is(err, session.ErrRemovalBlocked),
		errors.Is(err, session.ErrRemovalRejected),
		errors.Is(err, session.ErrResting),
		errors.Is(err, session.ErrAllDone),
		errors.Is(err, session.ErrSaving),
		errors.Is(err, session.ErrFinished),
		errors.Is(err, session.ErrNoExercises):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(op+" failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

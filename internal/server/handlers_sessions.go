package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/session"
	"github.com/google/uuid"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WorkoutID uuid.UUID `json:"workout_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.WorkoutID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "workout_id is required")
		return
	}
	sess, err := s.sessions.Start(r.Context(), userIDFromContext(r), body.WorkoutID)
	if err != nil {
		s.writeErr(w, "start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List(userIDFromContext(r)))
}

// lookup resolves the {id} session or writes the error response.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := uuidParam(w, r)
	if !ok {
		return nil, false
	}
	sess, err := s.sessions.Get(userIDFromContext(r), id)
	if err != nil {
		s.writeErr(w, "get session", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Abandon(userIDFromContext(r), id); err != nil {
		s.writeErr(w, "abandon session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionAction runs op against the {id} session and answers with the
// resulting snapshot.
func (s *Server) sessionAction(name string, op func(*session.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}
		if err := op(sess); err != nil {
			s.writeErr(w, name, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	set, err := sess.CompleteSet()
	if err != nil {
		s.writeErr(w, "complete set", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Set     models.SetInstance `json:"set"`
		Session session.Snapshot   `json:"session"`
	}{set, sess.Snapshot()})
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.sessionAction("skip rest", (*session.Session).SkipRest)(w, r)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	s.sessionAction("add set", (*session.Session).AddSet)(w, r)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	msg, err := sess.RemoveSet()
	if err != nil {
		s.writeErr(w, "remove set", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string           `json:"message"`
		Session session.Snapshot `json:"session"`
	}{msg, sess.Snapshot()})
}

// handleEditFirstSet takes reps and weight as the text typed into the edit
// sheet. Values that do not parse leave the stored value unchanged.
func (s *Server) handleEditFirstSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reps     string `json:"reps"`
		WeightKg string `json:"weight_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.sessionAction("edit first set", func(sess *session.Session) error {
		return sess.EditFirstSet(body.Reps, body.WeightKg)
	})(w, r)
}

func (s *Server) handleSetEditing(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.sessionAction("set editing", func(sess *session.Session) error {
		sess.SetEditing(body.Open)
		return nil
	})(w, r)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.sessionAction("next exercise", (*session.Session).Next)(w, r)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.sessionAction("previous exercise", (*session.Session).Prev)(w, r)
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DX float64 `json:"dx"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.sessionAction("swipe", func(sess *session.Session) error {
		return sess.Swipe(body.DX)
	})(w, r)
}

// handleFinishSession writes the ledger. On failure the session stays live
// and the client may retry.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Finish(r.Context(), userIDFromContext(r), sess.ID()); err != nil {
		s.writeErr(w, "finish session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

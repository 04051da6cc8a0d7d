package mcp

import (
	"context"

	"github.com/claude/setlog/internal/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List planned workouts, newest first. Use a workout id with start_session."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 20.")),
)

var toolGetWorkoutSets = mcp.NewTool("get_workout_sets",
	mcp.WithDescription("Stored sets of a workout. Each row is a block of identical sets; set_number is how many sets the block stands for."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout id")),
)

var toolStartSession = mcp.NewTool("start_session",
	mcp.WithDescription("Load a planned workout and start a live session at its first exercise. Returns the session snapshot."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout id")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List live sessions, oldest first."),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Snapshot of a live session: active exercise, cursor, rest countdown, planned/extra/total sets and performed sets per exercise."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolCompleteSet = mcp.NewTool("complete_set",
	mcp.WithDescription("Complete the current set of the active exercise. Starts the rest countdown when the set prescribes rest. Refused while resting."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolSkipRest = mcp.NewTool("skip_rest",
	mcp.WithDescription("End the active exercise's rest countdown."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolAddSet = mcp.NewTool("add_set",
	mcp.WithDescription("Append an extra set to the active exercise, copying the last planned set."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolRemoveSet = mcp.NewTool("remove_set",
	mcp.WithDescription("Remove one set from the active exercise, extra sets first. Refused while resting or once the exercise is complete."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolEditFirstSet = mcp.NewTool("edit_first_set",
	mcp.WithDescription("Change reps and weight of the active exercise's first set. Blank or invalid values keep the current value."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("reps", mcp.Description("Reps, a positive whole number")),
	mcp.WithString("weight_kg", mcp.Description("Weight in kg, e.g. 72.5 or 72,5")),
)

var toolNextExercise = mcp.NewTool("next_exercise",
	mcp.WithDescription("Move to the next exercise. Refused while resting unless the exercise is complete."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolPrevExercise = mcp.NewTool("prev_exercise",
	mcp.WithDescription("Move to the previous exercise. Refused while resting unless the exercise is complete."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolFinishSession = mcp.NewTool("finish_session",
	mcp.WithDescription("Save every exercise's performed sets and close the session. On failure the session stays open and can be finished again."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolAbandonSession = mcp.NewTool("abandon_session",
	mcp.WithDescription("Discard a live session without saving."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

// --- Tool handlers ---

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func requireUUID(req mcp.CallToolRequest, key string) (uuid.UUID, *mcp.CallToolResult) {
	s, err := req.RequireString(key)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(key + " parameter is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("invalid " + key + ": " + err.Error())
	}
	return id, nil
}

// session resolves the session_id argument among the caller's sessions.
func (h *handlers) session(ctx context.Context, req mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	id, res := requireUUID(req, "session_id")
	if res != nil {
		return nil, res
	}
	s, err := h.sessions.Get(UserIDFromContext(ctx), id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return s, nil
}

// action runs op on the requested session and returns its snapshot.
func (h *handlers) action(ctx context.Context, req mcp.CallToolRequest, op func(*session.Session) error) *mcp.CallToolResult {
	s, res := h.session(ctx, req)
	if res != nil {
		return res
	}
	if err := op(s); err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return jsonResult(s.Snapshot())
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	workouts, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts), nil
}

func (h *handlers) getWorkoutSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "workout_id")
	if res != nil {
		return res, nil
	}
	sets, err := h.ds.QueryWorkoutSets(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		h.log.Error("mcp get_workout_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sets), nil
}

func (h *handlers) startSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "workout_id")
	if res != nil {
		return res, nil
	}
	s, err := h.sessions.Start(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.Snapshot()), nil
}

func (h *handlers) listSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.sessions.List(UserIDFromContext(ctx))), nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.action(ctx, req, func(*session.Session) error { return nil }), nil
}

func (h *handlers) completeSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := h.session(ctx, req)
	if res != nil {
		return res, nil
	}
	set, err := s.CompleteSet()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"set": set, "session": s.Snapshot()}), nil
}

func (h *handlers) skipRest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.action(ctx, req, (*session.Session).SkipRest), nil
}

func (h *handlers) addSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.action(ctx, req, (*session.Session).AddSet), nil
}

func (h *handlers) removeSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := h.session(ctx, req)
	if res != nil {
		return res, nil
	}
	msg, err := s.RemoveSet()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"message": msg, "session": s.Snapshot()}), nil
}

func (h *handlers) editFirstSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps := req.GetString("reps", "")
	weight := req.GetString("weight_kg", "")
	return h.action(ctx, req, func(s *session.Session) error {
		return s.EditFirstSet(reps, weight)
	}), nil
}

func (h *handlers) nextExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.action(ctx, req, (*session.Session).Next), nil
}

func (h *handlers) prevExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.action(ctx, req, (*session.Session).Prev), nil
}

func (h *handlers) finishSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := h.session(ctx, req)
	if res != nil {
		return res, nil
	}
	if err := h.sessions.Finish(ctx, UserIDFromContext(ctx), s.ID()); err != nil {
		h.log.Error("mcp finish_session", "session", s.ID().String(), "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.Snapshot()), nil
}

func (h *handlers) abandonSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "session_id")
	if res != nil {
		return res, nil
	}
	if err := h.sessions.Abandon(UserIDFromContext(ctx), id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("session abandoned"), nil
}

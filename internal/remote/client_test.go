package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// newTestServer routes requests to handlers keyed by "METHOD path".
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(url string) *Client {
	c := NewClient(url, "secret")
	c.backoff = time.Millisecond
	return c
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestFetchPlan verifies the plan path, the API key header and decoding.
func TestFetchPlan(t *testing.T) {
	workoutID := uuid.New()
	exID := uuid.New()
	reps := 8

	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workouts/" + workoutID.String() + "/plan": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key = %q, want secret", got)
			}
			writeTestJSON(t, w, []models.PlannedExercise{{
				ID: exID, WorkoutID: workoutID, Name: "Squat",
				Sets: []models.PlannedSetConfig{{ID: 1, SetCount: 5, SetValues: models.SetValues{Reps: &reps}}},
			}})
		},
	})

	plan, err := newTestClient(ts.URL).FetchPlan(context.Background(), workoutID)
	if err != nil {
		t.Fatalf("FetchPlan: %v", err)
	}
	if len(plan) != 1 || plan[0].ID != exID || plan[0].Sets[0].SetCount != 5 || *plan[0].Sets[0].Reps != 8 {
		t.Errorf("plan = %+v", plan)
	}
}

// TestFetchPlanNotFound checks a 404 maps to the workout sentinel without
// retrying.
func TestFetchPlanNotFound(t *testing.T) {
	workoutID := uuid.New()
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workouts/" + workoutID.String() + "/plan": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, `{"error":"workout not found"}`, http.StatusNotFound)
		},
	})

	_, err := newTestClient(ts.URL).FetchPlan(context.Background(), workoutID)
	if !errors.Is(err, models.ErrWorkoutNotFound) {
		t.Fatalf("err = %v, want ErrWorkoutNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// TestReplaceSets verifies the PUT body is the block list and an empty
// ledger is sent as [] rather than null.
func TestReplaceSets(t *testing.T) {
	exID := uuid.New()
	var got []string

	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout-exercises/" + exID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got = append(got, string(raw))
			w.WriteHeader(http.StatusNoContent)
		},
	})

	c := newTestClient(ts.URL)
	reps := 5
	if err := c.ReplaceSets(context.Background(), exID, []models.SetBlock{{Count: 2, SetValues: models.SetValues{Reps: &reps}}}); err != nil {
		t.Fatalf("ReplaceSets: %v", err)
	}
	if err := c.ReplaceSets(context.Background(), exID, nil); err != nil {
		t.Fatalf("ReplaceSets empty: %v", err)
	}

	want := []string{
		`[{"count":2,"reps":5,"weight_kg":null,"rpe":null,"rest_sec":null}]`,
		`[]`,
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("bodies = %q, want %q", got, want)
	}
}

// TestReplaceSetsRetries verifies 5xx responses are retried and the call
// succeeds once the server recovers.
func TestReplaceSetsRetries(t *testing.T) {
	exID := uuid.New()
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout-exercises/" + exID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		},
	})

	if err := newTestClient(ts.URL).ReplaceSets(context.Background(), exID, nil); err != nil {
		t.Fatalf("ReplaceSets: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// TestReplaceSetsGivesUp checks the error after every attempt fails.
func TestReplaceSetsGivesUp(t *testing.T) {
	exID := uuid.New()
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout-exercises/" + exID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "down", http.StatusInternalServerError)
		},
	})

	err := newTestClient(ts.URL).ReplaceSets(context.Background(), exID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != maxAttempts {
		t.Errorf("calls = %d, want %d", calls.Load(), maxAttempts)
	}
	if errors.Is(err, models.ErrWorkoutExerciseNotFound) {
		t.Errorf("5xx mapped to not found: %v", err)
	}
}

// TestReplaceSetsNotFound checks the 404 mapping for exercises.
func TestReplaceSetsNotFound(t *testing.T) {
	exID := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout-exercises/" + exID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		},
	})

	err := newTestClient(ts.URL).ReplaceSets(context.Background(), exID, nil)
	if !errors.Is(err, models.ErrWorkoutExerciseNotFound) {
		t.Fatalf("err = %v, want ErrWorkoutExerciseNotFound", err)
	}
}

// TestMarkFinished verifies the finish body carries the timestamp.
func TestMarkFinished(t *testing.T) {
	workoutID := uuid.New()
	at := time.Date(2026, 5, 2, 7, 15, 0, 0, time.UTC)

	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts/" + workoutID.String() + "/finish": func(w http.ResponseWriter, r *http.Request) {
			var in struct {
				FinishedAt time.Time `json:"finished_at"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !in.FinishedAt.Equal(at) {
				t.Errorf("finished_at = %v, want %v", in.FinishedAt, at)
			}
			w.WriteHeader(http.StatusNoContent)
		},
	})

	if err := newTestClient(ts.URL).MarkFinished(context.Background(), workoutID, at); err != nil {
		t.Fatalf("MarkFinished: %v", err)
	}
}

// TestCreateAndListWorkouts covers the authoring calls.
func TestCreateAndListWorkouts(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			var in models.NewWorkout
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if in.Name != "Legs" {
				t.Errorf("name = %q, want Legs", in.Name)
			}
			w.WriteHeader(http.StatusCreated)
			writeTestJSON(t, w, map[string]uuid.UUID{"id": id})
		},
		"GET /api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit = %q, want 5", got)
			}
			writeTestJSON(t, w, []models.WorkoutRow{{ID: id, Name: "Legs"}})
		},
	})

	c := newTestClient(ts.URL)
	got, err := c.CreateWorkout(context.Background(), 1, models.NewWorkout{Name: "Legs"})
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if got != id {
		t.Errorf("id = %s, want %s", got, id)
	}

	rows, err := c.ListWorkouts(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Errorf("rows = %+v", rows)
	}
}

// TestCanceledContextStopsRetry checks the backoff honors cancellation.
func TestCanceledContextStopsRetry(t *testing.T) {
	exID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout-exercises/" + exID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			cancel()
			http.Error(w, "down", http.StatusBadGateway)
		},
	})

	c := newTestClient(ts.URL)
	c.backoff = time.Hour
	err := c.ReplaceSets(ctx, exID, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// TestQueryWorkoutSets verifies the set rows are decoded.
func TestQueryWorkoutSets(t *testing.T) {
	workoutID := uuid.New()
	reps := 5
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workouts/" + workoutID.String() + "/sets": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.WorkoutSetRow{{ExerciseName: "Squat", SetNumber: 3, SetValues: models.SetValues{Reps: &reps}}})
		},
	})

	rows, err := newTestClient(ts.URL).QueryWorkoutSets(context.Background(), 1, workoutID)
	if err != nil {
		t.Fatalf("QueryWorkoutSets: %v", err)
	}
	if len(rows) != 1 || rows[0].ExerciseName != "Squat" || rows[0].SetNumber != 3 || *rows[0].Reps != 5 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestCreateWorkoutNotRetried verifies a failed create is sent once, since a
// repeat after a lost response would store the workout twice.
func TestCreateWorkoutNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "timeout", http.StatusGatewayTimeout)
		},
	})

	if _, err := newTestClient(ts.URL).CreateWorkout(context.Background(), 1, models.NewWorkout{Name: "Legs"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// TestMarkFinishedRetries verifies the finish stamp is retried like other
// idempotent calls.
func TestMarkFinishedRetries(t *testing.T) {
	workoutID := uuid.New()
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts/" + workoutID.String() + "/finish": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		},
	})

	if err := newTestClient(ts.URL).MarkFinished(context.Background(), workoutID, time.Now()); err != nil {
		t.Fatalf("MarkFinished: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

// TestRetryable covers which requests may be repeated.
func TestRetryable(t *testing.T) {
	cases := []struct {
		method, path string
		want         bool
	}{
		{http.MethodGet, "/api/v1/workouts", true},
		{http.MethodPut, "/api/v1/workout-exercises/x/sets", true},
		{http.MethodPost, "/api/v1/workouts/x/finish", true},
		{http.MethodPost, "/api/v1/workouts", false},
		{http.MethodPatch, "/api/v1/workouts/x", false},
	}
	for _, tc := range cases {
		if got := retryable(tc.method, tc.path); got != tc.want {
			t.Errorf("retryable(%s %s) = %v, want %v", tc.method, tc.path, got, tc.want)
		}
	}
}

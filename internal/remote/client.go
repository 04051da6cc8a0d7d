// Package remote talks to a SetLog server over its REST API so a session
// can run on a different host from the store (e.g. across a tailnet).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/session"
	"github.com/google/uuid"
)

const maxAttempts = 3

// Client implements session.Backend against a remote SetLog server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

var (
	_ session.Backend  = (*Client)(nil)
	_ session.Finisher = (*Client)(nil)
)

// NewClient creates a client targeting baseURL. apiKey is sent as
// X-API-Key when non-empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    time.Second,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	path   string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote: %s returned %d: %s", e.path, e.status, e.body)
}

// retryable reports whether repeating the request cannot change the result.
// Finishing a workout only stamps a time; other POSTs create rows.
func retryable(method, path string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	case http.MethodPost:
		return strings.HasSuffix(path, "/finish")
	}
	return false
}

// do sends a request. Idempotent requests are retried on transport failures
// and 5xx responses with exponential backoff; 4xx responses are returned at
// once. Other requests are sent exactly once.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("remote: marshal request: %w", err)
		}
	}

	if !retryable(method, path) {
		return c.once(ctx, method, path, data)
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := c.once(ctx, method, path, data)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.status < 500 {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("remote: after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) once(ctx context.Context, method, path string, data []byte) ([]byte, error) {
	var rd io.Reader
	if data != nil {
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{path: path, status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// notFound maps a 404 onto sentinel while keeping the response detail.
func notFound(err, sentinel error) error {
	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", sentinel, se.body)
	}
	return err
}

// FetchPlan implements session.Backend.
func (c *Client) FetchPlan(ctx context.Context, workoutID uuid.UUID) ([]models.PlannedExercise, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+workoutID.String()+"/plan", nil)
	if err != nil {
		return nil, notFound(err, models.ErrWorkoutNotFound)
	}
	var plan []models.PlannedExercise
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("remote: decode plan: %w", err)
	}
	return plan, nil
}

// ReplaceSets implements session.Backend.
func (c *Client) ReplaceSets(ctx context.Context, workoutExerciseID uuid.UUID, blocks []models.SetBlock) error {
	if blocks == nil {
		blocks = []models.SetBlock{}
	}
	_, err := c.do(ctx, http.MethodPut, "/api/v1/workout-exercises/"+workoutExerciseID.String()+"/sets", blocks)
	return notFound(err, models.ErrWorkoutExerciseNotFound)
}

// MarkFinished implements session.Finisher.
func (c *Client) MarkFinished(ctx context.Context, workoutID uuid.UUID, at time.Time) error {
	in := struct {
		FinishedAt time.Time `json:"finished_at"`
	}{at.UTC()}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/workouts/"+workoutID.String()+"/finish", in)
	return notFound(err, models.ErrWorkoutNotFound)
}

// CreateWorkout uploads an authored plan and returns the new workout id.
// The server decides the owner.
func (c *Client) CreateWorkout(ctx context.Context, _ int, w models.NewWorkout) (uuid.UUID, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/workouts", w)
	if err != nil {
		return uuid.Nil, err
	}
	var out struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return uuid.Nil, fmt.Errorf("remote: decode workout id: %w", err)
	}
	return out.ID, nil
}

// ListWorkouts returns the most recent workouts of the identity the server
// assigns to this client.
func (c *Client) ListWorkouts(ctx context.Context, _ int, limit int) ([]models.WorkoutRow, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/workouts?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}
	var rows []models.WorkoutRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("remote: decode workouts: %w", err)
	}
	return rows, nil
}

// QueryWorkoutSets returns the stored set rows of a workout. The server
// scopes the lookup to the identity it assigns to this client.
func (c *Client) QueryWorkoutSets(ctx context.Context, _ int, workoutID uuid.UUID) ([]models.WorkoutSetRow, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+workoutID.String()+"/sets", nil)
	if err != nil {
		return nil, notFound(err, models.ErrWorkoutNotFound)
	}
	var rows []models.WorkoutSetRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("remote: decode workout sets: %w", err)
	}
	return rows, nil
}

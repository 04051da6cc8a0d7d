package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serve runs one GET request through h and returns the recorder.
func serve(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

// TestDevIdentity verifies every request is attributed to the seeded local
// user, both by id and by profile.
func TestDevIdentity(t *testing.T) {
	var id int
	var info UserInfo
	rec := serve(DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, info = userIDFromContext(r), userInfoFromContext(r)
	})))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if id != 1 || info.Login != "local" {
		t.Errorf("identity = (%d, %q), want (1, local)", id, info.Login)
	}
}

// TestIdentityFallback verifies a request that bypassed the identity
// middleware still resolves to the local user.
func TestIdentityFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := userIDFromContext(req); id != 1 {
		t.Errorf("userID = %d, want 1", id)
	}
	if info := userInfoFromContext(req); info != devUser {
		t.Errorf("info = %+v, want %+v", info, devUser)
	}

	ctx := context.WithValue(req.Context(), userIDKey, 42)
	ctx = context.WithValue(ctx, userInfoKey, UserInfo{Login: "bob@example.com"})
	req = req.WithContext(ctx)
	if id := userIDFromContext(req); id != 42 {
		t.Errorf("userID = %d, want 42", id)
	}
	if info := userInfoFromContext(req); info.Login != "bob@example.com" {
		t.Errorf("login = %q, want bob@example.com", info.Login)
	}
}

// TestRequestLogging verifies the status written by the handler passes through.
func TestRequestLogging(t *testing.T) {
	rec := serve(RequestLogging(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

// TestCORS verifies headers on normal requests and that preflights stop at
// the middleware.
func TestCORS(t *testing.T) {
	rec := serve(CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("origin = %q, want *", got)
	}

	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the handler")
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

// TestAPIKeyAuth verifies missing, wrong and correct keys.
func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("k")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for key, want := range map[string]int{"": http.StatusUnauthorized, "nope": http.StatusForbidden, "k": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("key %q: status = %d, want %d", key, rec.Code, want)
		}
	}
}

type stubUsers map[string]int

func (u stubUsers) ResolveUser(_ context.Context, login, _ string) (int, error) {
	id, ok := u[login]
	if !ok {
		return 0, errors.New("no such user")
	}
	return id, nil
}

// TestTailscaleIdentity verifies the tailnet login is mapped to a user id.
func TestTailscaleIdentity(t *testing.T) {
	whois := func(ctx context.Context, addr string) (UserInfo, error) {
		return UserInfo{Login: "alice@example.com", DisplayName: "Alice"}, nil
	}
	var gotID int
	var gotInfo UserInfo
	handler := TailscaleIdentity(whois, stubUsers{"alice@example.com": 7}, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = userIDFromContext(r)
			gotInfo = userInfoFromContext(r)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if gotID != 7 {
		t.Errorf("userID = %d, want 7", gotID)
	}
	if gotInfo.DisplayName != "Alice" {
		t.Errorf("displayName = %q, want Alice", gotInfo.DisplayName)
	}
}

// TestTailscaleIdentityUnknownPeer verifies requests are refused when whois
// cannot place the caller.
func TestTailscaleIdentityUnknownPeer(t *testing.T) {
	whois := func(ctx context.Context, addr string) (UserInfo, error) {
		return UserInfo{}, errors.New("peer not found")
	}
	handler := TailscaleIdentity(whois, stubUsers{}, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler should not be called")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

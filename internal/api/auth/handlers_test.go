package auth

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/ratelimit"
)

type fakeLoginClient struct {
	calls int
	login func(req backend.LoginRequest) (*backend.LoginResult, error)
}

func (f *fakeLoginClient) Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResult, error) {
	f.calls++
	return f.login(req)
}

func setupAuthTest(t *testing.T, c LoginClient) (*SessionStore, *[]string) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	store := newTestSessions(t, clock)
	l := ratelimit.New(&ratelimit.Config{MaxAttempts: 2, Lockout: time.Minute, MaxIPPerHour: 100, Clock: clock})

	var loggedOut []string
	prevClient, prevSessions, prevLimiter, prevLogout := client, sessions, limiter, onLogout
	t.Cleanup(func() {
		client, sessions, limiter, onLogout = prevClient, prevSessions, prevLimiter, prevLogout
	})
	InitHandlers(c, store, l, func(id string) { loggedOut = append(loggedOut, id) })
	return store, &loggedOut
}

func acceptAsha() *fakeLoginClient {
	return &fakeLoginClient{login: func(req backend.LoginRequest) (*backend.LoginResult, error) {
		if req.Email != "asha@college.edu" || req.Password != "secret1" {
			return nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
		}
		return &backend.LoginResult{Token: "tok", UniqueID: "VAR-42"}, nil
	}}
}

func postLogin(body string, contentType string, htmxRequest bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if htmxRequest {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)
	return rec
}

func TestHandleLoginJSON(t *testing.T) {
	setupAuthTest(t, acceptAsha())

	rec := postLogin(`{"email":"asha@college.edu","password":"secret1"}`, "application/json", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.UniqueID != "VAR-42" {
		t.Fatalf("unique_id = %q", body.UniqueID)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected a session cookie")
	}
}

func TestHandleLoginHTMXRedirects(t *testing.T) {
	setupAuthTest(t, acceptAsha())

	form := url.Values{"email": {"asha@college.edu"}, "password": {"secret1"}}
	rec := postLogin(form.Encode(), "application/x-www-form-urlencoded", true)
	if rec.Code != http.StatusOK || rec.Header().Get("HX-Redirect") != "/profile" {
		t.Fatalf("status = %d, HX-Redirect = %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}
}

func TestHandleLoginValidation(t *testing.T) {
	c := acceptAsha()
	setupAuthTest(t, c)

	rec := postLogin(`{"email":"not-an-email","password":""}`, "application/json", false)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if c.calls != 0 {
		t.Fatal("invalid input must not reach the backend")
	}
}

func TestHandleLoginRejectedThenLockedOut(t *testing.T) {
	c := acceptAsha()
	setupAuthTest(t, c)

	for i := 0; i < 2; i++ {
		rec := postLogin(`{"email":"asha@college.edu","password":"wrong"}`, "application/json", false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i+1, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid credentials") {
			t.Fatalf("body = %s", rec.Body.String())
		}
	}

	rec := postLogin(`{"email":"asha@college.edu","password":"secret1"}`, "application/json", false)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if c.calls != 2 {
		t.Fatalf("backend calls = %d, want 2", c.calls)
	}
}

func TestHandleLoginBackendDown(t *testing.T) {
	setupAuthTest(t, &fakeLoginClient{login: func(req backend.LoginRequest) (*backend.LoginResult, error) {
		return nil, backend.ErrTransport
	}})

	rec := postLogin(`{"email":"asha@college.edu","password":"secret1"}`, "application/json", false)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleLogout(t *testing.T) {
	store, loggedOut := setupAuthTest(t, acceptAsha())

	login := httptest.NewRecorder()
	identity, err := store.Create(login, backend.LoginResult{Token: "tok", UniqueID: "VAR-42"}, "asha@college.edu")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := requestWithCookies(login)
	req.Method = http.MethodPost
	rec := httptest.NewRecorder()
	HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(*loggedOut) != 1 || (*loggedOut)[0] != identity.SessionID {
		t.Fatalf("logout hook calls = %v", *loggedOut)
	}
}

func TestRequireIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, ok := RequireIdentity(rec, httptest.NewRequest(http.MethodGet, "/profile", nil)); ok {
		t.Fatal("anonymous request accepted")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{UniqueID: "VAR-1"}))
	identity, ok := RequireIdentity(httptest.NewRecorder(), req)
	if !ok || identity.UniqueID != "VAR-1" {
		t.Fatalf("RequireIdentity = %+v, %t", identity, ok)
	}
}

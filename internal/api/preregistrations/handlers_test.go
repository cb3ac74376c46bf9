package preregistrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
)

type fakeSender struct {
	requests []backend.Request
}

func (f *fakeSender) Do(ctx context.Context, req backend.Request) (*backend.Response, error) {
	f.requests = append(f.requests, req)
	if req.Path == backend.PreRegisterContingentPath {
		return nil, &backend.APIError{Status: http.StatusConflict, Message: "Contingent already registered"}
	}
	return &backend.Response{Status: http.StatusCreated, Message: "Registered"}, nil
}

func setup(t *testing.T) *fakeSender {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	s := &fakeSender{}
	prevSender, prevSports := sender, sports
	t.Cleanup(func() { sender, sports = prevSender, prevSports })
	InitHandlers(s, cat)
	return s
}

func post(h http.HandlerFunc, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleTeam(t *testing.T) {
	s := setup(t)

	rec := post(HandleTeam, "application/json", `{"name":"Spikers","email":"cap@college.edu","college":"NIT","phone":"9876543210","sport":"Volleyball","size":8}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"message":"Registered"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	payload, _ := json.Marshal(s.requests[0].Body)
	want := `{"name":"Spikers","email":"cap@college.edu","college":"NIT","phone":"9876543210","sport":"Volleyball","size":8}`
	if string(payload) != want || s.requests[0].Path != backend.PreRegisterTeamPath {
		t.Fatalf("payload = %s", payload)
	}
}

func TestHandleTeamValidation(t *testing.T) {
	s := setup(t)

	rec := post(HandleTeam, "application/json", `{"name":"Spikers","email":"cap@college.edu","college":"NIT","phone":"9876543210","sport":"Chess","size":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sport"`) || !strings.Contains(rec.Body.String(), `"size"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(s.requests) != 0 {
		t.Fatal("invalid pre-registration reached the backend")
	}
}

func TestHandleContingentFormFields(t *testing.T) {
	s := setup(t)

	form := url.Values{
		"name":    {"Meera"},
		"email":   {"meera@college.edu"},
		"college": {"BITS"},
		"phone":   {"9876543210"},
		"sports":  {"Cricket", "Football"},
		"size":    {"24"},
	}
	rec := post(HandleContingent, "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"state":"failed"`) || !strings.Contains(rec.Body.String(), "Contingent already registered") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	payload, _ := json.Marshal(s.requests[0].Body)
	if !strings.Contains(string(payload), `"sports":["Cricket","Football"]`) || !strings.Contains(string(payload), `"size":24`) {
		t.Fatalf("payload = %s", payload)
	}
}

package teams

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/registration"
	"github.com/varchas/website/internal/submission"
	"github.com/varchas/website/internal/teamreg"
)

type fakeSender struct {
	mu       sync.Mutex
	requests []backend.Request
	reply    func(req backend.Request) (*backend.Response, error)
}

func (f *fakeSender) Do(ctx context.Context, req backend.Request) (*backend.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.reply == nil {
		return &backend.Response{Status: http.StatusCreated, Message: "Team registered"}, nil
	}
	return f.reply(req)
}

func (f *fakeSender) calls() []backend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Request(nil), f.requests...)
}

var asha = &auth.Identity{SessionID: "session-asha", Token: "tok-asha", UniqueID: "VAR-42"}

func setupTeamsTest(t *testing.T, sender submission.Sender) {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	s := teamreg.NewStore(cat, sender, teamreg.Options{AutoCloseDelay: -1, Clock: clockwork.NewFakeClock()})

	prevStore, prevTheme := store, theme
	t.Cleanup(func() { store, theme = prevStore, prevTheme })
	InitHandlers(s, nil)
}

type call struct {
	method   string
	path     string
	body     string
	identity *auth.Identity
	htmx     bool
	values   map[string]string
}

func serve(h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.values {
		req.SetPathValue(k, v)
	}
	if c.identity != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), c.identity))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) teamreg.View {
	t.Helper()
	var view teamreg.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v (body %s)", err, rec.Body.String())
	}
	return view
}

func openForm(t *testing.T, sport string) teamreg.View {
	t.Helper()
	rec := serve(HandleOpen, call{method: http.MethodPost, path: "/api/v1/teamreg", body: fmt.Sprintf(`{"sport":%q}`, sport), identity: asha})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open status = %d body = %s", rec.Code, rec.Body.String())
	}
	return decodeView(t, rec)
}

func edit(t *testing.T, h http.HandlerFunc, id, category, slot, value string) *httptest.ResponseRecorder {
	t.Helper()
	values := map[string]string{"form": id, "category": category}
	if slot != "" {
		values["slot"] = slot
	}
	return serve(h, call{method: http.MethodPost, path: "/api/v1/teamreg/" + id, body: fmt.Sprintf(`{"value":%q}`, value), identity: asha, values: values})
}

func TestOpenRequiresLogin(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})

	rec := serve(HandleOpen, call{method: http.MethodPost, path: "/api/v1/teamreg", body: `{"sport":"Football Cup"}`})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOpenUnknownSport(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})

	rec := serve(HandleOpen, call{method: http.MethodPost, path: "/api/v1/teamreg", body: `{"sport":"Quidditch"}`, identity: asha})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = serve(HandleOpen, call{method: http.MethodPost, path: "/api/v1/teamreg", body: `{"sport":" "}`, identity: asha})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank sport status = %d", rec.Code)
	}
}

func TestRegisterTeamThroughAPI(t *testing.T) {
	sender := &fakeSender{}
	setupTeamsTest(t, sender)

	view := openForm(t, "volleyball-championship")
	if view.Sport != "Volleyball Championship" || len(view.Categories) != 2 {
		t.Fatalf("view = %+v", view)
	}

	if rec := edit(t, HandleToggleCategory, view.ID, "Women", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d body = %s", rec.Code, rec.Body.String())
	}
	if rec := edit(t, HandleSetTeamName, view.ID, "Women", "", "Spikers"); rec.Code != http.StatusOK {
		t.Fatalf("name status = %d", rec.Code)
	}
	rec := edit(t, HandleSetTeamSize, view.ID, "Women", "", "8")
	if rec.Code != http.StatusOK {
		t.Fatalf("size status = %d", rec.Code)
	}
	if got := decodeView(t, rec).Categories[1].Team; got == nil || got.Size != 8 || got.Name != "Spikers" {
		t.Fatalf("team = %+v", got)
	}

	rec = serve(HandleSubmit, call{method: http.MethodPost, path: "/api/v1/teamreg/" + view.ID + "/submit", identity: asha, values: map[string]string{"form": view.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d body = %s", rec.Code, rec.Body.String())
	}
	submitted := decodeView(t, rec)
	if submitted.Outcome.State != submission.Succeeded || submitted.Outcome.Message != "Team registered" {
		t.Fatalf("outcome = %+v", submitted.Outcome)
	}

	calls := sender.calls()
	if len(calls) != 1 || calls[0].Path != backend.CreateTeamPath || calls[0].Token != "tok-asha" {
		t.Fatalf("backend calls = %+v", calls)
	}

	rec = serve(HandleSubmit, call{method: http.MethodPost, path: "/api/v1/teamreg/" + view.ID + "/submit", identity: asha, values: map[string]string{"form": view.ID}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("resubmit status = %d", rec.Code)
	}
}

func TestSubmitValidationErrors(t *testing.T) {
	sender := &fakeSender{}
	setupTeamsTest(t, sender)
	view := openForm(t, "Football Cup")

	rec := serve(HandleSubmit, call{method: http.MethodPost, path: "/submit", identity: asha, values: map[string]string{"form": view.ID}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Please select at least one category") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = serve(HandleSubmit, call{method: http.MethodPost, path: "/submit", identity: asha, htmx: true, values: map[string]string{"form": view.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("htmx status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please select at least one category") || !strings.Contains(rec.Body.String(), `id="teamreg-`+view.ID+`"`) {
		t.Fatalf("fragment = %s", rec.Body.String())
	}
	if len(sender.calls()) != 0 {
		t.Fatal("invalid form reached the backend")
	}
}

func TestEditErrors(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})
	view := openForm(t, "Volleyball Championship")
	bgmi := openForm(t, "BGMI Esports")

	tests := []struct {
		name    string
		handler http.HandlerFunc
		form    string
		cat     string
		slot    string
		want    int
	}{
		{name: "unknown category", handler: HandleToggleCategory, form: view.ID, cat: "Mixed", want: http.StatusBadRequest},
		{name: "name on unselected category", handler: HandleSetTeamName, form: view.ID, cat: "Men", want: http.StatusBadRequest},
		{name: "player id outside fixed roster", handler: HandleSetPlayerID, form: view.ID, cat: "Men", slot: "id1", want: http.StatusBadRequest},
		{name: "toggle fixed roster", handler: HandleToggleCategory, form: bgmi.ID, cat: "BGMI", want: http.StatusBadRequest},
		{name: "missing form", handler: HandleToggleCategory, form: "nope", cat: "Men", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := edit(t, tt.handler, tt.form, tt.cat, tt.slot, "x")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestFormsAreScopedToSession(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})
	view := openForm(t, "Volleyball Championship")

	other := &auth.Identity{SessionID: "session-other", Token: "tok", UniqueID: "VAR-7"}
	rec := serve(HandleGet, call{method: http.MethodGet, path: "/", identity: other, values: map[string]string{"form": view.ID}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCloseForm(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})
	view := openForm(t, "Volleyball Championship")
	values := map[string]string{"form": view.ID}

	rec := serve(HandleClose, call{method: http.MethodDelete, path: "/", identity: asha, values: values})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", rec.Code)
	}
	rec = serve(HandleGet, call{method: http.MethodGet, path: "/", identity: asha, values: values})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after close status = %d", rec.Code)
	}
	rec = serve(HandleGet, call{method: http.MethodGet, path: "/", identity: asha, htmx: true, values: values})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "form is closed") {
		t.Fatalf("htmx get after close = %d %s", rec.Code, rec.Body.String())
	}
}

func TestJoinTeam(t *testing.T) {
	sender := &fakeSender{}
	setupTeamsTest(t, sender)
	view := openForm(t, "Volleyball Championship")
	values := map[string]string{"form": view.ID}

	form := url.Values{"teamId": {"  "}}
	rec := serve(HandleJoin, call{method: http.MethodPost, path: "/join", body: form.Encode(), identity: asha, htmx: true, values: values})
	if rec.Code != http.StatusOK || len(sender.calls()) != 0 {
		t.Fatalf("blank join = %d, calls %d", rec.Code, len(sender.calls()))
	}

	rec = serve(HandleJoin, call{method: http.MethodPost, path: "/join", body: `{"teamId":"T-42"}`, identity: asha, values: values})
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d body = %s", rec.Code, rec.Body.String())
	}
	calls := sender.calls()
	if len(calls) != 1 || calls[0].Path != backend.JoinTeamPath {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestRegisterPage(t *testing.T) {
	setupTeamsTest(t, &fakeSender{})

	rec := serve(HandleRegisterPage, call{method: http.MethodGet, path: "/sports/cricket-league/register", values: map[string]string{"sport": "cricket-league"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	rec = serve(HandleRegisterPage, call{method: http.MethodGet, path: "/sports/cricket-league/register", identity: asha, values: map[string]string{"sport": "cricket-league"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Cricket League registration", "VAR-42", "--theme-primary"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	for i := 0; i < 3; i++ {
		rec = serve(HandleRegisterPage, call{method: http.MethodGet, path: "/sports/cricket-league/register", identity: asha, values: map[string]string{"sport": "cricket-league"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("reload status = %d", rec.Code)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("reloads left %d forms open, want 1", store.Len())
	}
}

func TestFragmentEscapesInput(t *testing.T) {
	view := teamreg.View{
		ID:   "f1",
		Open: true,
		Categories: []teamreg.CategoryView{{
			Name: "Men", Code: "M", Min: 6, Max: 12, Selected: true,
			Team: &teamreg.TeamView{Name: `<script>alert(1)</script>`, NameError: "Team name is required"},
		}},
	}
	out := buildFormHTML(view)
	if strings.Contains(out, "<script>") {
		t.Fatalf("unescaped input in %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") || !strings.Contains(out, "Team name is required") {
		t.Fatalf("fragment = %s", out)
	}
	if !strings.Contains(out, "/api/v1/teamreg/f1/categories/Men/name") {
		t.Fatal("missing name endpoint")
	}
}

func TestFragmentDisablesInputsWhileSubmitting(t *testing.T) {
	view := teamreg.View{ID: "f1", Open: true, InputsDisabled: true, Categories: []teamreg.CategoryView{{Name: "Men", Min: 6, Max: 12}}}
	out := buildFormHTML(view)
	if !strings.Contains(out, "Submitting...") || !strings.Contains(out, " disabled") {
		t.Fatalf("fragment = %s", out)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{teamreg.ErrFormNotFound, http.StatusNotFound},
		{submission.ErrClosed, http.StatusGone},
		{teamreg.ErrInputsDisabled, http.StatusConflict},
		{submission.ErrInFlight, http.StatusConflict},
		{submission.ErrDiscarded, http.StatusConflict},
		{fmt.Errorf("wrap: %w", catalog.ErrUnknownCategory), http.StatusBadRequest},
		{registration.ErrSpecialMode, http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

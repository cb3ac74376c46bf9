package nav

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/varchas/website/internal/catalog"
)

func setupNav(t *testing.T) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	prev := sports
	t.Cleanup(func() { sports = prev })
	InitHandlers(cat)
}

func TestHandleSearch(t *testing.T) {
	setupNav(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "", want: nil},
		{name: "case insensitive", query: "FOOT", want: []string{"Football Cup"}},
		{name: "no match", query: "quidditch", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/nav/search?q="+tt.query, nil)
			rec := httptest.NewRecorder()
			HandleSearch(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var results []searchResult
			if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("results = %+v, want %v", results, tt.want)
			}
			for i, name := range tt.want {
				if results[i].Name != name || results[i].URL != "/sports/"+catalog.Slugify(name)+"/register" {
					t.Fatalf("result %d = %+v", i, results[i])
				}
			}
		})
	}
}

func TestHandleMenu(t *testing.T) {
	setupNav(t)

	rec := httptest.NewRecorder()
	HandleMenu(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nav/menu", nil))

	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, `href="/sports/bgmi-esports/register"`) {
		t.Fatalf("status = %d body = %s", rec.Code, body)
	}
}

func TestHandleMenuClose(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleMenuClose(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nav/menu/close", nil))
	if rec.Body.Len() != 0 {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

// internal/api/nav/handlers.go
package nav

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/catalog"
)

const maxSearchResults = 10

var sports *catalog.Catalog

func InitHandlers(c *catalog.Catalog) {
	sports = c
}

type searchResult struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

func HandleMenu(w http.ResponseWriter, r *http.Request) {
	apiutil.RenderHTML(r.Context(), w, http.StatusOK, menuComponent(allSports()), nil)
}

func HandleMenuClose(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(""))
}

// HandleSearch matches sports whose name contains q, ignoring case.
func HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	results := []searchResult{}
	if q != "" {
		folder := cases.Fold()
		needle := folder.String(q)
		for _, sport := range allSports() {
			if !strings.Contains(folder.String(sport.Name), needle) {
				continue
			}
			results = append(results, searchResult{Name: sport.Name, Slug: sport.Slug, URL: registerURL(sport)})
			if len(results) == maxSearchResults {
				break
			}
		}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, results); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write search results")
	}
}

func allSports() []catalog.Sport {
	if sports == nil {
		return nil
	}
	return sports.Sports
}

func registerURL(sport catalog.Sport) string {
	return "/sports/" + sport.Slug + "/register"
}

func menuComponent(list []catalog.Sport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="nav-menu" class="absolute right-4 top-14 z-10 w-64 rounded-md border border-border bg-background p-2 shadow-lg">`)
		b.WriteString(`<div class="flex items-center justify-between px-2 pb-2"><span class="text-sm font-semibold">Sports</span>`)
		b.WriteString(`<button hx-get="/api/v1/nav/menu/close" hx-target="#nav-menu" hx-swap="outerHTML" class="text-xs text-muted-foreground">Close</button></div>`)
		b.WriteString(`<ul class="space-y-1">`)
		for _, sport := range list {
			b.WriteString(fmt.Sprintf(`<li><a class="block rounded px-2 py-1 text-sm hover:bg-muted" href="%s">%s</a></li>`,
				html.EscapeString(registerURL(sport)), html.EscapeString(sport.Name)))
		}
		b.WriteString(`</ul></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

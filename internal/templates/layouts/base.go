package layouts

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/varchas/website/internal/models"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// Page carries what the shell around every page needs.
type Page struct {
	Title    string
	Theme    *models.Theme
	UniqueID string // empty when logged out
}

func (p Page) LoggedIn() bool {
	return p.UniqueID != ""
}

func Base(page Page, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "Varchas"
		if strings.TrimSpace(page.Title) != "" {
			title = page.Title + " | Varchas"
		}

		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>` + html.EscapeString(title) + `</title>`)
		b.WriteString(`<style>` + themeStyle(page.Theme) + `</style>`)
		b.WriteString(`<link rel="stylesheet" href="/static/css/main.css">`)
		b.WriteString(`<script src="` + htmxScript + `" defer></script>`)
		b.WriteString(`</head><body class="min-h-screen bg-[var(--theme-tertiary)]">`)
		b.WriteString(navHTML(page))
		b.WriteString(`<main id="main" class="mx-auto max-w-5xl p-6">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func navHTML(page Page) string {
	var b strings.Builder
	b.WriteString(`<nav class="flex items-center justify-between bg-[var(--theme-primary)] px-6 py-3 text-white">`)
	b.WriteString(`<a href="/" class="text-lg font-bold">Varchas</a><div class="relative flex gap-4">`)
	b.WriteString(`<button hx-get="/api/v1/nav/menu" hx-target="#nav-menu-slot" hx-swap="innerHTML">Sports</button><div id="nav-menu-slot"></div>`)
	if page.LoggedIn() {
		b.WriteString(`<a href="/profile">` + html.EscapeString(page.UniqueID) + `</a>`)
		b.WriteString(`<button hx-post="/api/v1/auth/logout">Log out</button>`)
	} else {
		b.WriteString(`<a href="/#login">Log in</a><a href="/#signup">Sign up</a>`)
	}
	b.WriteString(`</div></nav>`)
	return b.String()
}

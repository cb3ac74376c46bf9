package site

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/varchas/website/internal/api/account"
	"github.com/varchas/website/internal/catalog"
)

const inputClass = `mt-1 w-full rounded-md border border-border px-3 py-2 text-sm focus:border-blue-500 focus:ring-blue-500`

type HomeData struct {
	Catalog  *catalog.Catalog
	LoggedIn bool
}

func homeComponent(data HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildHomeHTML(data))
		return err
	})
}

func buildHomeHTML(data HomeData) string {
	var b strings.Builder
	b.WriteString(`<div class="space-y-10">`)
	b.WriteString(`<section class="rounded-lg bg-[var(--theme-primary)] p-8 text-white"><h1 class="text-4xl font-bold">Varchas</h1>`)
	b.WriteString(`<p class="mt-2 text-lg">The annual sports festival of IIT Jodhpur. Pick a sport, build your team and register.</p></section>`)

	b.WriteString(buildSportsGridHTML(data.Catalog.Sports))

	if !data.LoggedIn {
		b.WriteString(`<div class="grid gap-6 md:grid-cols-2">`)
		b.WriteString(card("login", "Log in", buildLoginFormHTML()))
		b.WriteString(card("signup", "Create an account", account.BuildSignupFormHTML()))
		b.WriteString(`</div>`)
	}

	b.WriteString(`<div class="grid gap-6 md:grid-cols-2">`)
	b.WriteString(card("preregister", "Pre-register", buildPreRegistrationHTML(data.Catalog)))
	b.WriteString(card("referee", "Become a referee", buildRefereeFormHTML(data.Catalog.RefereeSports)))
	b.WriteString(`</div></div>`)
	return b.String()
}

func card(id, title, body string) string {
	return fmt.Sprintf(`<section id="%s" class="rounded-lg border border-border bg-background p-4 shadow-sm"><h2 class="mb-3 text-lg font-semibold text-foreground">%s</h2>%s</section>`,
		id, html.EscapeString(title), body)
}

func buildSportsGridHTML(list []catalog.Sport) string {
	var b strings.Builder
	b.WriteString(`<section><h2 class="mb-3 text-2xl font-semibold text-foreground">Sports</h2><div class="grid gap-4 sm:grid-cols-2 lg:grid-cols-3">`)
	for _, sport := range list {
		b.WriteString(`<a class="block rounded-lg border border-border bg-background p-4 shadow-sm hover:border-[var(--theme-accent)]" href="/sports/` + html.EscapeString(sport.Slug) + `/register">`)
		b.WriteString(fmt.Sprintf(`<div class="font-semibold text-foreground">%s</div>`, html.EscapeString(sport.Name)))
		var cats []string
		for _, c := range sport.Categories {
			cats = append(cats, fmt.Sprintf("%s %d-%d", c.Name, c.Min, c.Max))
		}
		b.WriteString(fmt.Sprintf(`<div class="mt-1 text-xs text-muted-foreground">%s</div></a>`, html.EscapeString(strings.Join(cats, " · "))))
	}
	b.WriteString(`</div></section>`)
	return b.String()
}

func buildLoginFormHTML() string {
	var b strings.Builder
	b.WriteString(`<form class="space-y-3" hx-post="/api/v1/auth/login" hx-target="#login-feedback" hx-swap="innerHTML">`)
	b.WriteString(textInput("Email", "email", "email"))
	b.WriteString(textInput("Password", "password", "password"))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Log in</button></form>`)
	b.WriteString(`<div id="login-feedback"></div>`)
	return b.String()
}

func buildRefereeFormHTML(refereeSports []string) string {
	var b strings.Builder
	b.WriteString(`<form class="space-y-3" hx-post="/api/v1/referees" hx-target="#referee-feedback" hx-swap="innerHTML">`)
	b.WriteString(textInput("Name", "name", "text"))
	b.WriteString(textInput("Email", "email", "email"))
	b.WriteString(textInput("Phone", "phone", "tel"))
	b.WriteString(selectInput("Sport", "sport", refereeSports))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Sign up</button></form>`)
	b.WriteString(`<div id="referee-feedback"></div>`)
	return b.String()
}

func buildPreRegistrationHTML(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(`<details open><summary class="cursor-pointer text-sm font-semibold">Team</summary>`)
	b.WriteString(`<form class="mt-2 space-y-3" hx-post="/api/v1/preregistrations/team" hx-target="#prereg-team-feedback" hx-swap="innerHTML">`)
	b.WriteString(textInput("Team name", "name", "text"))
	b.WriteString(textInput("Email", "email", "email"))
	b.WriteString(textInput("College", "college", "text"))
	b.WriteString(textInput("Phone", "phone", "tel"))
	b.WriteString(selectInput("Sport", "sport", c.PreRegistrationSports))
	b.WriteString(numberInput("Team size", "size"))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Pre-register team</button></form>`)
	b.WriteString(`<div id="prereg-team-feedback"></div></details>`)

	b.WriteString(`<details class="mt-4"><summary class="cursor-pointer text-sm font-semibold">Contingent</summary>`)
	b.WriteString(`<form class="mt-2 space-y-3" hx-post="/api/v1/preregistrations/contingent" hx-target="#prereg-contingent-feedback" hx-swap="innerHTML">`)
	b.WriteString(textInput("Contingent leader", "name", "text"))
	b.WriteString(textInput("Email", "email", "email"))
	b.WriteString(textInput("College", "college", "text"))
	b.WriteString(textInput("Phone", "phone", "tel"))
	b.WriteString(`<fieldset><legend class="text-sm font-medium text-foreground">Sports</legend><div class="mt-1 grid grid-cols-2 gap-1">`)
	for _, sport := range c.PreRegistrationSports {
		b.WriteString(fmt.Sprintf(`<label class="flex items-center gap-2 text-sm"><input type="checkbox" name="sports" value="%s"/> %s</label>`,
			html.EscapeString(sport), html.EscapeString(sport)))
	}
	b.WriteString(`</div></fieldset>`)
	b.WriteString(numberInput("Contingent size", "size"))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Pre-register contingent</button></form>`)
	b.WriteString(`<div id="prereg-contingent-feedback"></div></details>`)
	return b.String()
}

func textInput(label, name, kind string) string {
	return fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">%s</label><input type="%s" name="%s" class="%s"/></div>`,
		label, kind, name, inputClass)
}

func numberInput(label, name string) string {
	return fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">%s</label><input type="number" name="%s" min="1" step="1" class="%s"/></div>`,
		label, name, inputClass)
}

func selectInput(label, name string, options []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">%s</label><select name="%s" class="%s"><option value="">Select</option>`, label, name, inputClass))
	for _, opt := range options {
		b.WriteString(fmt.Sprintf(`<option value="%s">%s</option>`, html.EscapeString(opt), html.EscapeString(opt)))
	}
	b.WriteString(`</select></div>`)
	return b.String()
}

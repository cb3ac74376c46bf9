package teams

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/varchas/website/internal/submission"
	"github.com/varchas/website/internal/teamreg"
)

const inputClass = `mt-1 w-full rounded-md border border-border px-3 py-2 text-sm focus:border-blue-500 focus:ring-blue-500 disabled:bg-muted`

func registerPageComponent(view teamreg.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, fmt.Sprintf(`<div class="space-y-6"><h1 class="text-2xl font-semibold text-foreground">%s registration</h1>`, html.EscapeString(view.Sport))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildFormHTML(view)); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func formComponent(view teamreg.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildFormHTML(view))
		return err
	})
}

func closedComponent() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="rounded border border-dashed border-border p-6 text-center text-sm text-muted-foreground"><p>This registration form is closed.</p><a class="mt-2 inline-block underline" href="/profile">Back to your profile</a></div>`)
		return err
	})
}

func formBase(view teamreg.View) string {
	return "/api/v1/teamreg/" + url.PathEscape(view.ID)
}

func categoryBase(view teamreg.View, category string) string {
	return formBase(view) + "/categories/" + url.PathEscape(category)
}

// hxAttrs targets the whole form so every edit re-renders it.
func hxAttrs(view teamreg.View, path, trigger string) string {
	attrs := fmt.Sprintf(`hx-post="%s" hx-target="#teamreg-%s" hx-swap="outerHTML"`, html.EscapeString(path), html.EscapeString(view.ID))
	if trigger != "" {
		attrs += fmt.Sprintf(` hx-trigger="%s"`, trigger)
	}
	return attrs
}

func disabledAttr(disabled bool) string {
	if disabled {
		return " disabled"
	}
	return ""
}

func buildFormHTML(view teamreg.View) string {
	if !view.Open {
		var b strings.Builder
		b.WriteString(fmt.Sprintf(`<div id="teamreg-%s">`, html.EscapeString(view.ID)))
		b.WriteString(`<div class="rounded border border-dashed border-border p-6 text-center text-sm text-muted-foreground">This registration form is closed.</div></div>`)
		return b.String()
	}

	locked := view.InputsDisabled || view.Outcome.State == submission.Succeeded

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<section id="teamreg-%s" class="space-y-6 rounded-lg border border-border bg-background p-4 shadow-sm" data-sport="%s">`,
		html.EscapeString(view.ID), html.EscapeString(view.SportSlug)))

	b.WriteString(`<fieldset class="space-y-2"><legend class="text-sm font-semibold text-foreground">Categories</legend>`)
	for _, category := range view.Categories {
		b.WriteString(buildCategoryToggleHTML(view, category, locked))
	}
	b.WriteString(`</fieldset>`)

	for _, category := range view.Categories {
		if category.Team == nil {
			continue
		}
		b.WriteString(buildTeamHTML(view, category, locked))
	}

	if msg := view.FormError(); msg != "" {
		b.WriteString(fmt.Sprintf(`<p class="text-sm text-red-600" role="alert">%s</p>`, html.EscapeString(msg)))
	}

	label := "Register"
	if view.InputsDisabled {
		label = "Submitting..."
	}
	b.WriteString(fmt.Sprintf(`<button type="button" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white disabled:opacity-50" %s%s>%s</button>`,
		hxAttrs(view, formBase(view)+"/submit", ""), disabledAttr(locked), label))

	b.WriteString(buildOutcomeHTML(view))
	b.WriteString(buildJoinHTML(view, locked))
	b.WriteString(`</section>`)
	return b.String()
}

func buildCategoryToggleHTML(view teamreg.View, category teamreg.CategoryView, locked bool) string {
	checked := ""
	if category.Selected {
		checked = " checked"
	}
	// Fixed-roster sports have a single preselected category.
	disabled := disabledAttr(locked || view.FixedRoster)
	return fmt.Sprintf(`<label class="flex items-center gap-2 text-sm"><input type="checkbox" name="category" value="%s" %s%s%s/> %s <span class="text-xs text-muted-foreground">(%d to %d players)</span></label>`,
		html.EscapeString(category.Name),
		hxAttrs(view, categoryBase(view, category.Name)+"/toggle", "change"),
		checked, disabled,
		html.EscapeString(category.Name), category.Min, category.Max)
}

func buildTeamHTML(view teamreg.View, category teamreg.CategoryView, locked bool) string {
	team := category.Team
	base := categoryBase(view, category.Name)

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<div class="space-y-3 rounded-md border border-border p-3" data-category="%s">`, html.EscapeString(category.Code)))
	b.WriteString(fmt.Sprintf(`<h3 class="text-sm font-semibold text-foreground">%s</h3>`, html.EscapeString(category.Name)))

	b.WriteString(fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">Team name</label><input type="text" name="value" value="%s" class="%s" %s%s/>`,
		html.EscapeString(team.Name), inputClass, hxAttrs(view, base+"/name", "change"), disabledAttr(locked)))
	b.WriteString(fieldErrorHTML(team.NameError))
	b.WriteString(`</div>`)

	size := ""
	if team.Size > 0 {
		size = fmt.Sprintf("%d", team.Size)
	}
	b.WriteString(fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">Team size</label><input type="number" name="value" value="%s" min="%d" max="%d" step="1" class="%s" %s%s/>`,
		size, category.Min, category.Max, inputClass, hxAttrs(view, base+"/size", "change"), disabledAttr(locked)))
	b.WriteString(fieldErrorHTML(team.SizeError))
	b.WriteString(`</div>`)

	if len(team.Players) > 0 {
		b.WriteString(`<div class="grid gap-3 sm:grid-cols-2">`)
		for i, slot := range team.Players {
			b.WriteString(fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">Player %d ID</label><input type="text" name="value" value="%s" class="%s" %s%s/>`,
				i+1, html.EscapeString(slot.Value), inputClass,
				hxAttrs(view, base+"/players/"+url.PathEscape(slot.Key), "change"), disabledAttr(locked)))
			b.WriteString(fieldErrorHTML(slot.Error))
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}

func buildOutcomeHTML(view teamreg.View) string {
	switch view.Outcome.State {
	case submission.Succeeded:
		// Poll once after the auto-close delay so the closed state is shown.
		return fmt.Sprintf(`<div class="rounded-md bg-green-50 p-3 text-sm text-green-800" role="status" hx-get="%s" hx-trigger="load delay:2s" hx-target="#teamreg-%s" hx-swap="outerHTML">%s</div>`,
			html.EscapeString(formBase(view)), html.EscapeString(view.ID), html.EscapeString(view.Outcome.Message))
	case submission.Failed:
		return fmt.Sprintf(`<div class="rounded-md bg-red-50 p-3 text-sm text-red-800" role="alert">%s</div>`, html.EscapeString(view.Outcome.Message))
	default:
		return ""
	}
}

func buildJoinHTML(view teamreg.View, locked bool) string {
	var b strings.Builder
	b.WriteString(`<div class="border-t border-border pt-4"><h3 class="text-sm font-semibold text-foreground">Already have a team?</h3>`)
	b.WriteString(fmt.Sprintf(`<form class="mt-2 flex gap-2" %s><input type="text" name="teamId" placeholder="Team ID" class="%s"%s/>`,
		hxAttrs(view, formBase(view)+"/join", "submit"), inputClass, disabledAttr(locked)))
	b.WriteString(fmt.Sprintf(`<button type="submit" class="rounded-md border border-border px-3 py-2 text-sm font-medium"%s>Join</button></form>`, disabledAttr(locked)))
	b.WriteString(fieldErrorHTML(view.JoinError))
	b.WriteString(`</div>`)
	return b.String()
}

func fieldErrorHTML(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<p class="mt-1 text-xs text-red-600">%s</p>`, html.EscapeString(msg))
}

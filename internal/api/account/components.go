package account

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
)

const inputClass = `mt-1 w-full rounded-md border border-border px-3 py-2 text-sm focus:border-blue-500 focus:ring-blue-500`

type ProfilePageData struct {
	UniqueID  string
	Profile   backend.Profile
	Sports    []catalog.Sport
	LoadError string
}

func profilePageComponent(data ProfilePageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildProfilePageHTML(data))
		return err
	})
}

func profileFormComponent(profile forms.Profile, cat *catalog.Catalog) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildProfileFormHTML(profile, cat))
		return err
	})
}

func buildProfilePageHTML(data ProfilePageData) string {
	var b strings.Builder
	b.WriteString(`<div class="space-y-6">`)
	if data.LoadError != "" {
		b.WriteString(fmt.Sprintf(`<div class="rounded-md bg-red-50 p-3 text-sm text-red-800" role="alert">%s</div>`, html.EscapeString(data.LoadError)))
	} else {
		b.WriteString(buildProfileCardHTML(data))
	}

	b.WriteString(`<section class="rounded-lg border border-border bg-background p-4 shadow-sm"><h2 class="text-lg font-semibold text-foreground">Register a team</h2>`)
	b.WriteString(`<ul class="mt-3 grid gap-2 sm:grid-cols-2">`)
	for _, sport := range data.Sports {
		b.WriteString(fmt.Sprintf(`<li><a class="block rounded-md border border-border px-3 py-2 text-sm hover:bg-muted" href="/sports/%s/register">%s</a></li>`,
			html.EscapeString(sport.Slug), html.EscapeString(sport.Name)))
	}
	b.WriteString(`</ul></section></div>`)
	return b.String()
}

func buildProfileCardHTML(data ProfilePageData) string {
	p := data.Profile
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = p.Email
	}

	var b strings.Builder
	b.WriteString(`<section class="rounded-lg border border-border bg-background p-4 shadow-sm"><div class="flex items-center gap-4">`)
	b.WriteString(fmt.Sprintf(`<div class="flex h-14 w-14 items-center justify-center rounded-full bg-[var(--theme-accent)] text-xl font-bold text-white">%s</div>`, html.EscapeString(p.Initials())))
	b.WriteString(fmt.Sprintf(`<div><h1 class="text-2xl font-semibold text-foreground">%s</h1><p class="text-sm text-muted-foreground">%s</p></div></div>`,
		html.EscapeString(name), html.EscapeString(data.UniqueID)))

	accommodation := "Not required"
	if p.HasAccommodation() {
		accommodation = "Required"
	}
	b.WriteString(`<dl class="mt-4 grid gap-2 text-sm sm:grid-cols-2">`)
	for _, row := range [][2]string{
		{"Email", p.Email},
		{"Phone", p.Phone},
		{"College", p.College},
		{"Accommodation", accommodation},
	} {
		b.WriteString(fmt.Sprintf(`<div><dt class="text-muted-foreground">%s</dt><dd class="font-medium">%s</dd></div>`, row[0], html.EscapeString(row[1])))
	}
	b.WriteString(`</dl>`)

	b.WriteString(`<h2 class="mt-4 text-sm font-semibold text-foreground">Your teams</h2>`)
	teams := p.Teams()
	if len(teams) == 0 {
		b.WriteString(`<p class="text-sm text-muted-foreground">You have not joined any team yet.</p>`)
	} else {
		b.WriteString(`<ul class="mt-1 flex flex-wrap gap-2">`)
		for _, team := range teams {
			b.WriteString(fmt.Sprintf(`<li class="rounded bg-muted px-2 py-1 text-xs font-mono">%s</li>`, html.EscapeString(team)))
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</section>`)
	return b.String()
}

// BuildSignupFormHTML is the first signup step; its success swaps in the profile form.
func BuildSignupFormHTML() string {
	var b strings.Builder
	b.WriteString(`<div id="signup" class="space-y-3">`)
	b.WriteString(`<form class="space-y-3" hx-post="/api/v1/account/register" hx-target="#signup-feedback" hx-swap="innerHTML">`)
	b.WriteString(textInput("Email", "email", "email", ""))
	b.WriteString(textInput("Password", "password", "password", ""))
	b.WriteString(textInput("Confirm password", "confirm", "password", ""))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Sign up</button></form>`)
	b.WriteString(`<div id="signup-feedback"></div></div>`)
	return b.String()
}

func buildProfileFormHTML(p forms.Profile, cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(`<form class="space-y-3" hx-put="/api/v1/account/profile" hx-target="#profile-feedback" hx-swap="innerHTML">`)
	b.WriteString(`<p class="text-sm text-muted-foreground">Almost done. Tell us about yourself.</p>`)
	b.WriteString(fmt.Sprintf(`<input type="hidden" name="email" value="%s"/>`, html.EscapeString(p.Email)))
	b.WriteString(textInput("First name", "first_name", "text", p.FirstName))
	b.WriteString(textInput("Last name", "last_name", "text", p.LastName))
	b.WriteString(textInput("Phone", "phone", "tel", p.Phone))
	b.WriteString(selectInput("Gender", "gender", [][2]string{{"M", "Male"}, {"F", "Female"}}, p.Gender))
	b.WriteString(textInput("College", "college", "text", p.College))

	var states [][2]string
	if cat != nil {
		for _, state := range cat.States {
			states = append(states, [2]string{state.Value, state.Label})
		}
	}
	b.WriteString(selectInput("State", "state", states, p.State))
	b.WriteString(selectInput("Accommodation required", "accommodation_required", [][2]string{{"N", "No"}, {"Y", "Yes"}}, p.AccommodationRequired))
	b.WriteString(textInput("Account holder name", "account_holder_name", "text", p.AccountHolderName))
	b.WriteString(textInput("IFSC code", "ifsc_code", "text", p.IFSCCode))
	b.WriteString(textInput("Bank account number", "bank_account_number", "text", p.BankAccountNumber))
	b.WriteString(`<button type="submit" class="rounded-md bg-[var(--theme-accent)] px-4 py-2 text-sm font-semibold text-white">Save</button></form>`)
	b.WriteString(`<div id="profile-feedback"></div>`)
	return b.String()
}

func textInput(label, name, kind, value string) string {
	return fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">%s</label><input type="%s" name="%s" value="%s" class="%s"/></div>`,
		label, kind, name, html.EscapeString(value), inputClass)
}

func selectInput(label, name string, options [][2]string, selected string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<div><label class="block text-sm font-medium text-foreground">%s</label><select name="%s" class="%s"><option value="">Select</option>`, label, name, inputClass))
	for _, opt := range options {
		sel := ""
		if strings.EqualFold(opt[0], selected) {
			sel = " selected"
		}
		b.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`, html.EscapeString(opt[0]), sel, html.EscapeString(opt[1])))
	}
	b.WriteString(`</select></div>`)
	return b.String()
}

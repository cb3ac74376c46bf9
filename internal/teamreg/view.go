package teamreg

import (
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/registration"
	"github.com/varchas/website/internal/submission"
)

// View is a read-only snapshot of an open form, safe to render or encode.
type View struct {
	ID             string             `json:"id"`
	Sport          string             `json:"sport"`
	SportSlug      string             `json:"sportSlug"`
	FixedRoster    bool               `json:"fixedRoster"`
	Categories     []CategoryView     `json:"categories"`
	Errors         forms.Errors       `json:"errors,omitempty"`
	JoinError      string             `json:"joinError,omitempty"`
	Outcome        submission.Outcome `json:"outcome"`
	InputsDisabled bool               `json:"inputsDisabled"`
	Open           bool               `json:"open"`
}

type CategoryView struct {
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Min      int       `json:"min"`
	Max      int       `json:"max"`
	Selected bool      `json:"selected"`
	Team     *TeamView `json:"team,omitempty"`
}

type TeamView struct {
	Name      string       `json:"teamName"`
	NameError string       `json:"teamNameError,omitempty"`
	Size      int          `json:"teamSize"`
	SizeError string       `json:"teamSizeError,omitempty"`
	Players   []PlayerSlot `json:"players,omitempty"`
}

type PlayerSlot struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// FormError returns the form-level validation message, if any.
func (v View) FormError() string {
	return v.Errors[forms.FormKey]
}

// SelectedCount reports how many categories are selected.
func (v View) SelectedCount() int {
	n := 0
	for _, c := range v.Categories {
		if c.Selected {
			n++
		}
	}
	return n
}

func buildView(id string, draft *registration.Draft, controller *submission.Controller, joinErr string) View {
	sport := draft.Sport()
	errs := draft.Errors()
	view := View{
		ID:             id,
		Sport:          sport.Name,
		SportSlug:      sport.Slug,
		FixedRoster:    sport.IsFixedRoster(),
		Categories:     make([]CategoryView, 0, len(sport.Categories)),
		Errors:         errs,
		JoinError:      joinErr,
		Outcome:        controller.Outcome(),
		InputsDisabled: controller.Busy(),
		Open:           controller.IsOpen(),
	}

	for _, category := range sport.Categories {
		cv := CategoryView{
			Name:     category.Name,
			Code:     category.Code,
			Min:      category.Min,
			Max:      category.Max,
			Selected: draft.IsSelected(category.Name),
		}
		if cv.Selected {
			team, _ := draft.Team(category.Name)
			tv := &TeamView{
				Name:      team.Name,
				NameError: errs[registration.TeamNameKey(category.Name)],
				Size:      team.Size,
				SizeError: errs[registration.TeamSizeKey(category.Name)],
			}
			for i, value := range team.PlayerIDs {
				key := registration.PlayerSlotKey(i + 1)
				tv.Players = append(tv.Players, PlayerSlot{
					Key:   key,
					Value: value,
					Error: errs[registration.FieldKey(category.Name, key)],
				})
			}
			cv.Team = tv
		}
		view.Categories = append(view.Categories, cv)
	}
	return view
}

package registration

import (
	"strings"

	"github.com/varchas/website/internal/forms"
)

// ValidateAll recomputes every error of d from scratch. An empty result means
// the draft may be submitted.
func ValidateAll(d *Draft) forms.Errors {
	errs := forms.Errors{}
	if len(d.selected) == 0 {
		errs.Set(forms.FormKey, msgSelectCategory)
		return errs
	}

	for _, category := range d.selected {
		bounds, _ := d.sport.Category(category)
		var team Team
		if entry, ok := d.teams[category]; ok {
			team = *entry
		}

		if strings.TrimSpace(team.Name) == "" {
			errs.Set(FieldKey(category, teamNameField), msgTeamNameRequired)
		}
		if !bounds.InRange(team.Size) {
			errs.Set(FieldKey(category, teamSizeField), sizeMessage(bounds))
		}

		if !d.sport.IsFixedRoster() {
			continue
		}
		dups := duplicateSlots(team.PlayerIDs)
		for i, value := range team.PlayerIDs {
			key := FieldKey(category, PlayerSlotKey(i+1))
			switch {
			case strings.TrimSpace(value) == "":
				errs.Set(key, msgPlayerIDRequired)
			case dups[i]:
				errs.Set(key, msgPlayerIDDup)
			}
		}
	}
	return errs
}

package registration

import (
	"fmt"
	"strings"

	"github.com/varchas/website/internal/forms"
)

const msgTeamIDRequired = "Please enter a team ID"

// CreateTeamPayload is the body of POST /registration/createteam/. The three
// slices are index-aligned with the draft's selection order.
type CreateTeamPayload struct {
	Sport      string            `json:"sport"`
	Categories []string          `json:"categories"`
	TeamSize   []int             `json:"teamsize"`
	Teams      []string          `json:"teams"`
	TeamIDs    map[string]string `json:"team_id,omitempty"`
}

// JoinTeamPayload is the body of POST /account/jointeam/.
type JoinTeamPayload struct {
	TeamID string `json:"teamId"`
}

// BuildCreatePayload turns a validated draft into the backend request body.
// Fixed roster sports send exactly the ids the user entered.
func BuildCreatePayload(d *Draft) (CreateTeamPayload, error) {
	if errs := ValidateAll(d); len(errs) > 0 {
		return CreateTeamPayload{}, errs
	}

	payload := CreateTeamPayload{
		Sport:      d.sport.ID,
		Categories: make([]string, 0, len(d.selected)),
		TeamSize:   make([]int, 0, len(d.selected)),
		Teams:      make([]string, 0, len(d.selected)),
	}
	for _, category := range d.selected {
		code, err := d.sport.CategoryCode(category)
		if err != nil {
			return CreateTeamPayload{}, fmt.Errorf("build create payload: %w", err)
		}
		team := d.teams[category]
		payload.Categories = append(payload.Categories, code)
		payload.TeamSize = append(payload.TeamSize, team.Size)
		payload.Teams = append(payload.Teams, strings.TrimSpace(team.Name))
	}

	if d.sport.IsFixedRoster() {
		team := d.teams[d.selected[0]]
		ids := team.PlayerIDMap()
		for key, value := range ids {
			ids[key] = strings.TrimSpace(value)
		}
		payload.TeamIDs = ids
	}
	return payload, nil
}

func BuildJoinPayload(teamID string) (JoinTeamPayload, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return JoinTeamPayload{}, forms.Errors{forms.FormKey: msgTeamIDRequired}
	}
	return JoinTeamPayload{TeamID: teamID}, nil
}

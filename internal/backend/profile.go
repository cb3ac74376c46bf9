package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Profile is the reply of /account/displayProfile/.
type Profile struct {
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Phone         string            `json:"phone"`
	College       string            `json:"college"`
	Accommodation string            `json:"accommodation"`
	TeamList      []json.RawMessage `json:"teams"`
	TeamIDs       []json.RawMessage `json:"team_ids"`
	TeamID        json.RawMessage   `json:"team_id"`
}

// Teams prefers "teams", then "team_ids", then the single "team_id".
func (p Profile) Teams() []string {
	for _, list := range [][]json.RawMessage{p.TeamList, p.TeamIDs} {
		if len(list) > 0 {
			out := make([]string, 0, len(list))
			for _, raw := range list {
				if value := rawString(raw); value != "" {
					out = append(out, value)
				}
			}
			return out
		}
	}
	if value := rawString(p.TeamID); value != "" {
		return []string{value}
	}
	return nil
}

func (p Profile) HasAccommodation() bool {
	return p.Accommodation == "Y"
}

// Initials falls back to the first letter of the email, then "U".
func (p Profile) Initials() string {
	var initials string
	if p.FirstName != "" {
		initials += string([]rune(p.FirstName)[:1])
	}
	if p.LastName != "" {
		initials += string([]rune(p.LastName)[:1])
	}
	if initials != "" {
		return initials
	}
	if p.Email != "" {
		return strings.ToUpper(string([]rune(p.Email)[:1]))
	}
	return "U"
}

// FetchProfile loads the profile of the user owning token.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: DisplayProfilePath, Token: token})
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := resp.Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// rawString renders a JSON scalar (string or number) as text.
func rawString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return trimmed
}

package registration

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/varchas/website/internal/forms"
)

func TestValidateAllEmptySelection(t *testing.T) {
	d := NewDraft(mustSport(t, "Volleyball Championship"))
	errs := ValidateAll(d)
	want := forms.Errors{forms.FormKey: "Please select at least one category"}
	if !reflect.DeepEqual(errs, want) {
		t.Fatalf("ValidateAll = %v, want %v", errs, want)
	}
}

func TestValidateAllRecomputesFromScratch(t *testing.T) {
	d := NewDraft(mustSport(t, "Volleyball Championship"))
	if err := d.ToggleCategory("Men"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	// Nothing edited yet, so no incremental errors exist.
	if len(d.Errors()) != 0 {
		t.Fatalf("unexpected incremental errors: %v", d.Errors())
	}

	errs := ValidateAll(d)
	if errs["Men_teamName"] != "Team name is required" {
		t.Errorf("missing name error: %v", errs)
	}
	if errs["Men_teamSize"] != "Team size must be between 6 and 12" {
		t.Errorf("missing size error: %v", errs)
	}

	_ = d.SetTeamName("Men", "Spikers")
	_ = d.SetTeamSize("Men", "6")
	if errs := ValidateAll(d); len(errs) != 0 {
		t.Fatalf("expected submittable draft, got %v", errs)
	}
}

func TestValidateAllFixedRoster(t *testing.T) {
	d := NewDraft(mustSport(t, "BGMI Esports"))
	_ = d.SetTeamName("BGMI", "Chicken Dinner")
	_ = d.SetPlayerID("BGMI", "id1", "ace")
	_ = d.SetPlayerID("BGMI", "id2", "ACE")
	_ = d.SetPlayerID("BGMI", "id3", "clutch")

	errs := ValidateAll(d)
	want := forms.Errors{
		"BGMI_id1": "Duplicate player ID",
		"BGMI_id2": "Duplicate player ID",
		"BGMI_id4": "Player ID is required",
	}
	if !reflect.DeepEqual(errs, want) {
		t.Fatalf("ValidateAll = %v, want %v", errs, want)
	}
}

func TestBuildCreatePayloadVolleyball(t *testing.T) {
	d := NewDraft(mustSport(t, "Volleyball Championship"))
	for _, entry := range []struct{ category, size, name string }{
		{"Men", "6", "A"},
		{"Women", "6", "B"},
	} {
		if err := d.ToggleCategory(entry.category); err != nil {
			t.Fatalf("toggle: %v", err)
		}
		_ = d.SetTeamSize(entry.category, entry.size)
		_ = d.SetTeamName(entry.category, entry.name)
	}

	payload, err := BuildCreatePayload(d)
	if err != nil {
		t.Fatalf("BuildCreatePayload: %v", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"sport":"8","categories":["M","W"],"teamsize":[6,6],"teams":["A","B"]}`
	if string(body) != want {
		t.Fatalf("payload = %s, want %s", body, want)
	}
}

func TestBuildCreatePayloadFollowsSelectionOrder(t *testing.T) {
	d := NewDraft(mustSport(t, "Badminton Tournament"))
	for _, entry := range []struct{ category, size, name string }{
		{"Mixed", "2", " Duo "},
		{"Men", "4", "Smashers"},
	} {
		_ = d.ToggleCategory(entry.category)
		_ = d.SetTeamSize(entry.category, entry.size)
		_ = d.SetTeamName(entry.category, entry.name)
	}

	payload, err := BuildCreatePayload(d)
	if err != nil {
		t.Fatalf("BuildCreatePayload: %v", err)
	}
	if !reflect.DeepEqual(payload.Categories, []string{"X", "M"}) {
		t.Errorf("categories = %v", payload.Categories)
	}
	if !reflect.DeepEqual(payload.TeamSize, []int{2, 4}) {
		t.Errorf("teamsize = %v", payload.TeamSize)
	}
	if !reflect.DeepEqual(payload.Teams, []string{"Duo", "Smashers"}) {
		t.Errorf("teams = %v", payload.Teams)
	}
	if payload.TeamIDs != nil {
		t.Errorf("team_id should be absent, got %v", payload.TeamIDs)
	}
}

func TestBuildCreatePayloadFixedRoster(t *testing.T) {
	d := NewDraft(mustSport(t, "BGMI Esports"))
	_ = d.SetTeamName("BGMI", "Squad")
	for i, id := range []string{"a1", "b2", "c3", "d4"} {
		_ = d.SetPlayerID("BGMI", PlayerSlotKey(i+1), id)
	}

	payload, err := BuildCreatePayload(d)
	if err != nil {
		t.Fatalf("BuildCreatePayload: %v", err)
	}
	if payload.Sport != "13" || !reflect.DeepEqual(payload.Categories, []string{"BGMI"}) {
		t.Fatalf("unexpected payload %+v", payload)
	}
	want := map[string]string{"id1": "a1", "id2": "b2", "id3": "c3", "id4": "d4"}
	if !reflect.DeepEqual(payload.TeamIDs, want) {
		t.Fatalf("team_id = %v, want %v (no padded slots)", payload.TeamIDs, want)
	}
}

func TestBuildCreatePayloadRejectsInvalidDraft(t *testing.T) {
	d := NewDraft(mustSport(t, "Football Cup"))
	_, err := BuildCreatePayload(d)
	var errs forms.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected forms.Errors, got %v", err)
	}
	if errs[forms.FormKey] == "" {
		t.Fatalf("expected form-level error, got %v", errs)
	}
}

func TestBuildJoinPayload(t *testing.T) {
	payload, err := BuildJoinPayload("  TEAM-42 ")
	if err != nil {
		t.Fatalf("BuildJoinPayload: %v", err)
	}
	body, _ := json.Marshal(payload)
	if string(body) != `{"teamId":"TEAM-42"}` {
		t.Fatalf("payload = %s", body)
	}

	_, err = BuildJoinPayload("   ")
	var errs forms.Errors
	if !errors.As(err, &errs) || errs[forms.FormKey] != "Please enter a team ID" {
		t.Fatalf("expected team id error, got %v", err)
	}
}

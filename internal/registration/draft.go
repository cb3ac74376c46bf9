// Package registration holds the team registration form engine: the draft
// state for one open form, its validation and the payloads built from it.
package registration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
)

const (
	teamNameField = "teamName"
	teamSizeField = "teamSize"
	playerIDKey   = "id"
	maxParsedSize = 1 << 30

	msgTeamNameRequired = "Team name is required"
	msgTeamSizeRange    = "Team size must be between %d and %d"
	msgPlayerIDRequired = "Player ID is required"
	msgPlayerIDDup      = "Duplicate player ID"
	msgSelectCategory   = "Please select at least one category"
)

var (
	ErrSpecialMode         = errors.New("categories are fixed for this sport")
	ErrNotSpecialMode      = errors.New("sport does not collect player ids")
	ErrCategoryNotSelected = errors.New("category is not selected")
	ErrUnknownPlayerSlot   = errors.New("unknown player slot")
)

// Team is the per-category part of a draft.
type Team struct {
	Name      string   `json:"teamName"`
	Size      int      `json:"teamSize"`
	PlayerIDs []string `json:"-"`
}

// PlayerIDMap returns the roster keyed id1..idN.
func (t Team) PlayerIDMap() map[string]string {
	if t.PlayerIDs == nil {
		return nil
	}
	out := make(map[string]string, len(t.PlayerIDs))
	for i, value := range t.PlayerIDs {
		out[PlayerSlotKey(i+1)] = value
	}
	return out
}

func (t Team) clone() Team {
	if t.PlayerIDs != nil {
		t.PlayerIDs = append([]string(nil), t.PlayerIDs...)
	}
	return t
}

// Draft is the in-progress state of one team registration form. Selected
// categories and team entries are kept in sync here and nowhere else.
type Draft struct {
	sport    catalog.Sport
	selected []string
	teams    map[string]*Team
	errors   forms.Errors
}

// NewDraft opens an empty draft for sport. Fixed roster sports start with their
// only category selected and a blank roster of the minimum size.
func NewDraft(sport catalog.Sport) *Draft {
	d := &Draft{
		sport:  sport,
		teams:  make(map[string]*Team),
		errors: forms.Errors{},
	}
	if sport.IsFixedRoster() && len(sport.Categories) > 0 {
		category := sport.Categories[0]
		d.selected = []string{category.Name}
		d.teams[category.Name] = &Team{
			Size:      category.Min,
			PlayerIDs: make([]string, category.Min),
		}
	}
	return d
}

func (d *Draft) Sport() catalog.Sport {
	return d.sport
}

// Selected returns the selected categories in selection order.
func (d *Draft) Selected() []string {
	return append([]string(nil), d.selected...)
}

func (d *Draft) IsSelected(category string) bool {
	return d.indexOf(category) >= 0
}

// Team returns the team entry for category; an entry not yet edited is zero.
func (d *Draft) Team(category string) (Team, bool) {
	team, ok := d.teams[category]
	if !ok {
		return Team{}, false
	}
	return team.clone(), true
}

// Errors returns a copy of the incrementally maintained field errors.
func (d *Draft) Errors() forms.Errors {
	return d.errors.Clone()
}

// ReplaceErrors swaps the field errors, used after a full validation pass.
func (d *Draft) ReplaceErrors(errs forms.Errors) {
	d.errors = errs.Clone()
}

func (d *Draft) ToggleCategory(category string) error {
	if d.sport.IsFixedRoster() {
		return ErrSpecialMode
	}
	if _, ok := d.sport.Category(category); !ok {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}

	if i := d.indexOf(category); i >= 0 {
		d.selected = append(d.selected[:i], d.selected[i+1:]...)
		delete(d.teams, category)
		d.clearCategoryErrors(category)
		return nil
	}

	d.selected = append(d.selected, category)
	delete(d.errors, forms.FormKey)
	return nil
}

func (d *Draft) SetTeamName(category, value string) error {
	team, err := d.editableTeam(category)
	if err != nil {
		return err
	}
	team.Name = value
	key := FieldKey(category, teamNameField)
	if strings.TrimSpace(value) == "" {
		d.errors.Set(key, msgTeamNameRequired)
	} else {
		d.errors.Set(key, "")
	}
	return nil
}

// SetTeamSize stores the parsed size even when it is out of range so the input
// keeps what the user typed. Non-numeric input counts as 0. A fixed roster is
// clamped to [0, Max] slots; an out-of-range size keeps its error, which blocks
// submission.
func (d *Draft) SetTeamSize(category, raw string) error {
	team, err := d.editableTeam(category)
	if err != nil {
		return err
	}
	bounds, _ := d.sport.Category(category)

	size := parseSize(raw)
	team.Size = size
	key := FieldKey(category, teamSizeField)
	if !bounds.InRange(size) {
		d.errors.Set(key, sizeMessage(bounds))
	} else {
		d.errors.Set(key, "")
	}

	if d.sport.IsFixedRoster() {
		d.resizeRoster(category, team, min(size, bounds.Max))
	}
	return nil
}

func (d *Draft) SetPlayerID(category, slot, value string) error {
	if !d.sport.IsFixedRoster() {
		return ErrNotSpecialMode
	}
	team, err := d.editableTeam(category)
	if err != nil {
		return err
	}
	index, ok := parsePlayerSlot(slot)
	if !ok || index > len(team.PlayerIDs) {
		return fmt.Errorf("%w: %q", ErrUnknownPlayerSlot, slot)
	}

	team.PlayerIDs[index-1] = value
	if strings.TrimSpace(value) == "" {
		d.errors.Set(FieldKey(category, slot), msgPlayerIDRequired)
	}
	d.rescanDuplicates(category, team)
	return nil
}

func (d *Draft) editableTeam(category string) (*Team, error) {
	if _, ok := d.sport.Category(category); !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}
	if !d.IsSelected(category) {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotSelected, category)
	}
	team, ok := d.teams[category]
	if !ok {
		team = &Team{}
		if d.sport.IsFixedRoster() {
			team.PlayerIDs = []string{}
		}
		d.teams[category] = team
	}
	return team, nil
}

// resizeRoster keeps existing ids by position, blanks new slots and drops the
// errors of removed ones.
func (d *Draft) resizeRoster(category string, team *Team, size int) {
	if size < 0 {
		size = 0
	}
	for i := size; i < len(team.PlayerIDs); i++ {
		delete(d.errors, FieldKey(category, PlayerSlotKey(i+1)))
	}
	resized := make([]string, size)
	copy(resized, team.PlayerIDs)
	team.PlayerIDs = resized
	d.rescanDuplicates(category, team)
}

// rescanDuplicates recomputes the duplicate flag of every slot in category so a
// fix in one slot clears its sibling too. Blank slots never count as duplicates.
func (d *Draft) rescanDuplicates(category string, team *Team) {
	dups := duplicateSlots(team.PlayerIDs)
	for i, value := range team.PlayerIDs {
		key := FieldKey(category, PlayerSlotKey(i+1))
		switch {
		case strings.TrimSpace(value) == "":
			if d.errors[key] == msgPlayerIDDup {
				delete(d.errors, key)
			}
		case dups[i]:
			d.errors.Set(key, msgPlayerIDDup)
		default:
			delete(d.errors, key)
		}
	}
}

func (d *Draft) clearCategoryErrors(category string) {
	prefix := category + "_"
	for key := range d.errors {
		if strings.HasPrefix(key, prefix) {
			delete(d.errors, key)
		}
	}
}

func (d *Draft) indexOf(category string) int {
	for i, name := range d.selected {
		if name == category {
			return i
		}
	}
	return -1
}

// FieldKey builds the "<category>_<field>" key used in validation errors.
func FieldKey(category, field string) string {
	return category + "_" + field
}

func TeamNameKey(category string) string {
	return FieldKey(category, teamNameField)
}

func TeamSizeKey(category string) string {
	return FieldKey(category, teamSizeField)
}

func PlayerSlotKey(n int) string {
	return playerIDKey + strconv.Itoa(n)
}

func parsePlayerSlot(slot string) (int, bool) {
	if !strings.HasPrefix(slot, playerIDKey) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(slot, playerIDKey))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parseSize reads the leading integer of raw, so "12abc" and "12.7" are 12.
// Input without leading digits is 0. Magnitudes saturate at maxParsedSize.
func parseSize(raw string) int {
	s := strings.TrimSpace(raw)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n >= maxParsedSize {
			n = maxParsedSize
			break
		}
	}
	return sign * n
}

func sizeMessage(bounds catalog.Category) string {
	return fmt.Sprintf(msgTeamSizeRange, bounds.Min, bounds.Max)
}

func normalizePlayerID(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}

func duplicateSlots(ids []string) []bool {
	counts := make(map[string]int, len(ids))
	for _, value := range ids {
		if normalized := normalizePlayerID(value); normalized != "" {
			counts[normalized]++
		}
	}
	dups := make([]bool, len(ids))
	for i, value := range ids {
		if normalized := normalizePlayerID(value); normalized != "" && counts[normalized] > 1 {
			dups[i] = true
		}
	}
	return dups
}

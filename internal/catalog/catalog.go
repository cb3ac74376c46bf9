// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpecialModeFixedRoster marks sports whose members are identified by roster ids.
const SpecialModeFixedRoster = "fixed-roster-with-player-ids"

//go:embed sports.yaml
var defaultCatalogYAML []byte

var (
	ErrUnknownSport    = errors.New("unknown sport")
	ErrUnknownCategory = errors.New("unknown category")
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

type Category struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
	Min  int    `yaml:"min" json:"min"`
	Max  int    `yaml:"max" json:"max"`
}

// InRange reports whether size satisfies the category's team-size bounds.
func (c Category) InRange(size int) bool {
	return size >= c.Min && size <= c.Max
}

type Sport struct {
	Name        string     `yaml:"name" json:"name"`
	Slug        string     `yaml:"-" json:"slug"`
	ID          string     `yaml:"id" json:"id"`
	SpecialMode string     `yaml:"special_mode,omitempty" json:"specialMode,omitempty"`
	Categories  []Category `yaml:"categories" json:"categories"`
}

// IsFixedRoster reports whether drafts for this sport collect individual player ids.
func (s Sport) IsFixedRoster() bool {
	return s.SpecialMode == SpecialModeFixedRoster
}

func (s Sport) Category(name string) (Category, bool) {
	for _, category := range s.Categories {
		if category.Name == name {
			return category, true
		}
	}
	return Category{}, false
}

// CategoryCode translates a category display name to the code the backend expects.
// Names the sport does not define are rejected rather than passed through.
func (s Sport) CategoryCode(name string) (string, error) {
	category, ok := s.Category(name)
	if !ok {
		return "", fmt.Errorf("%w: %q for %s", ErrUnknownCategory, name, s.Name)
	}
	return category.Code, nil
}

func (s Sport) CategoryNames() []string {
	names := make([]string, len(s.Categories))
	for i, category := range s.Categories {
		names[i] = category.Name
	}
	return names
}

type State struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Catalog struct {
	Sports                []Sport  `yaml:"sports"`
	RefereeSports         []string `yaml:"referee_sports"`
	PreRegistrationSports []string `yaml:"preregistration_sports"`
	States                []State  `yaml:"states"`

	byKey map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog from path, falling back to the embedded table when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	c.index()
	return &c, nil
}

func (c *Catalog) Validate() error {
	if len(c.Sports) == 0 {
		return fmt.Errorf("at least one sport is required")
	}
	names := make(map[string]struct{}, len(c.Sports))
	for _, sport := range c.Sports {
		name := strings.TrimSpace(sport.Name)
		if name == "" {
			return fmt.Errorf("sport name is required")
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("duplicate sport %q", name)
		}
		names[name] = struct{}{}
		if strings.TrimSpace(sport.ID) == "" {
			return fmt.Errorf("sport %q: id is required", name)
		}
		if sport.SpecialMode != "" && sport.SpecialMode != SpecialModeFixedRoster {
			return fmt.Errorf("sport %q: unsupported special mode %q", name, sport.SpecialMode)
		}
		if len(sport.Categories) == 0 {
			return fmt.Errorf("sport %q: at least one category is required", name)
		}
		if sport.IsFixedRoster() && len(sport.Categories) != 1 {
			return fmt.Errorf("sport %q: fixed roster sports must have exactly one category", name)
		}
		seen := make(map[string]struct{}, len(sport.Categories))
		for _, category := range sport.Categories {
			if strings.TrimSpace(category.Name) == "" {
				return fmt.Errorf("sport %q: category name is required", name)
			}
			if _, dup := seen[category.Name]; dup {
				return fmt.Errorf("sport %q: duplicate category %q", name, category.Name)
			}
			seen[category.Name] = struct{}{}
			if strings.TrimSpace(category.Code) == "" {
				return fmt.Errorf("sport %q: category %q has no code", name, category.Name)
			}
			if category.Min < 1 {
				return fmt.Errorf("sport %q: category %q min must be at least 1", name, category.Name)
			}
			if category.Min > category.Max {
				return fmt.Errorf("sport %q: category %q min %d exceeds max %d", name, category.Name, category.Min, category.Max)
			}
		}
	}
	return nil
}

func (c *Catalog) index() {
	c.byKey = make(map[string]int, len(c.Sports)*2)
	for i := range c.Sports {
		c.Sports[i].Slug = Slugify(c.Sports[i].Name)
		c.byKey[c.Sports[i].Name] = i
		c.byKey[c.Sports[i].Slug] = i
	}
}

// Lookup finds a sport by display name or slug.
func (c *Catalog) Lookup(key string) (Sport, bool) {
	if c == nil {
		return Sport{}, false
	}
	i, ok := c.byKey[strings.TrimSpace(key)]
	if !ok {
		return Sport{}, false
	}
	return c.Sports[i], true
}

func (c *Catalog) HasState(value string) bool {
	for _, state := range c.States {
		if state.Value == value {
			return true
		}
	}
	return false
}

func (c *Catalog) IsRefereeSport(name string) bool {
	return containsName(c.RefereeSports, name)
}

func (c *Catalog) IsPreRegistrationSport(name string) bool {
	return containsName(c.PreRegistrationSports, name)
}

func containsName(names []string, name string) bool {
	name = strings.TrimSpace(name)
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

// Slugify turns a display name like "Football Cup" into "football-cup".
func Slugify(name string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

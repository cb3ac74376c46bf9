// internal/models/themes.go
package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Theme colors sit behind headings and buttons, so the large-text AA ratio applies.
const minThemeContrast = 3.0

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var (
	black = rgb{}
	white = rgb{r: 1, g: 1, b: 1}
)

func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// Theme is the festival color scheme applied by the base layout. Empty colors
// fall back to the defaults.
type Theme struct {
	PrimaryColor   string `yaml:"primary_color" json:"primaryColor"`
	SecondaryColor string `yaml:"secondary_color" json:"secondaryColor"`
	TertiaryColor  string `yaml:"tertiary_color" json:"tertiaryColor"`
	AccentColor    string `yaml:"accent_color" json:"accentColor"`
	HighlightColor string `yaml:"highlight_color" json:"highlightColor"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:   "#0b1d3a",
		SecondaryColor: "#e5e7eb",
		TertiaryColor:  "#f9fafb",
		AccentColor:    "#f97316",
		HighlightColor: "#16a34a",
	}
}

// WithDefaults replaces empty or malformed colors with the default ones.
func (t Theme) WithDefaults() Theme {
	def := DefaultTheme()
	pick := func(value, fallback string) string {
		if v := strings.TrimSpace(value); IsHexColor(v) {
			return v
		}
		return fallback
	}
	return Theme{
		PrimaryColor:   pick(t.PrimaryColor, def.PrimaryColor),
		SecondaryColor: pick(t.SecondaryColor, def.SecondaryColor),
		TertiaryColor:  pick(t.TertiaryColor, def.TertiaryColor),
		AccentColor:    pick(t.AccentColor, def.AccentColor),
		HighlightColor: pick(t.HighlightColor, def.HighlightColor),
	}
}

// Validate reports every set color that is malformed or that neither black nor
// white text can be read on.
func (t Theme) Validate() error {
	var errs []error
	for _, field := range t.fields() {
		if field.value == "" {
			continue
		}
		c, err := parseRGB(field.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
			continue
		}
		if best := math.Max(contrast(c, black), contrast(c, white)); best < minThemeContrast {
			errs = append(errs, fmt.Errorf("%s: contrast %.2f with black or white text is below %.1f", field.name, best, minThemeContrast))
		}
	}
	return errors.Join(errs...)
}

// TextColors returns, per color, black or white, whichever reads better on it.
func (t Theme) TextColors() Theme {
	filled := t.WithDefaults()
	pick := func(hex string) string {
		c, err := parseRGB(hex)
		if err != nil || contrast(c, black) >= contrast(c, white) {
			return "#000000"
		}
		return "#ffffff"
	}
	return Theme{
		PrimaryColor:   pick(filled.PrimaryColor),
		SecondaryColor: pick(filled.SecondaryColor),
		TertiaryColor:  pick(filled.TertiaryColor),
		AccentColor:    pick(filled.AccentColor),
		HighlightColor: pick(filled.HighlightColor),
	}
}

type themeField struct {
	name  string
	value string
}

func (t Theme) fields() []themeField {
	return []themeField{
		{"primary_color", t.PrimaryColor},
		{"secondary_color", t.SecondaryColor},
		{"tertiary_color", t.TertiaryColor},
		{"accent_color", t.AccentColor},
		{"highlight_color", t.HighlightColor},
	}
}

// rgb holds channels scaled to [0, 1].
type rgb struct {
	r, g, b float64
}

func parseRGB(hex string) (rgb, error) {
	if !hexColorRegex.MatchString(hex) {
		return rgb{}, fmt.Errorf("%q is not a 6-digit hex color like #AABBCC", hex)
	}
	var ch [3]float64
	for i := range ch {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return rgb{}, fmt.Errorf("%q: %w", hex, err)
		}
		ch[i] = float64(v) / 255
	}
	return rgb{r: ch[0], g: ch[1], b: ch[2]}, nil
}

// luminance is the WCAG relative luminance.
func (c rgb) luminance() float64 {
	linear := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(c.r) + 0.7152*linear(c.g) + 0.0722*linear(c.b)
}

func contrast(a, b rgb) float64 {
	la, lb := a.luminance(), b.luminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

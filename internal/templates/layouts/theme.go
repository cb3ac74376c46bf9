package layouts

import (
	"strings"

	"github.com/varchas/website/internal/models"
)

// themeStyle renders the theme as CSS custom properties, each color paired
// with a readable text color.
func themeStyle(theme *models.Theme) string {
	var t models.Theme
	if theme != nil {
		t = *theme
	}
	colors, text := t.WithDefaults(), t.TextColors()

	var b strings.Builder
	b.WriteString(":root{")
	for _, v := range [][3]string{
		{"primary", colors.PrimaryColor, text.PrimaryColor},
		{"secondary", colors.SecondaryColor, text.SecondaryColor},
		{"tertiary", colors.TertiaryColor, text.TertiaryColor},
		{"accent", colors.AccentColor, text.AccentColor},
		{"highlight", colors.HighlightColor, text.HighlightColor},
	} {
		b.WriteString("--theme-" + v[0] + ":" + v[1] + ";")
		b.WriteString("--theme-" + v[0] + "-text:" + v[2] + ";")
	}
	b.WriteString("}")
	return b.String()
}

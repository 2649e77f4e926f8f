package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
	Error      lipgloss.Color
	CodeBorder lipgloss.Color
	// CodeStyle names the chroma style used for fenced code
	CodeStyle string
}

var Dark = Theme{
	Name:       "dark",
	Primary:    lipgloss.Color("#8ab4f8"),
	Accent:     lipgloss.Color("#c58af9"),
	Text:       lipgloss.Color("#e8eaed"),
	TextMuted:  lipgloss.Color("#9aa0a6"),
	Error:      lipgloss.Color("#f28b82"),
	CodeBorder: lipgloss.Color("#5f6368"),
	CodeStyle:  "monokai",
}

var Light = Theme{
	Name:       "light",
	Primary:    lipgloss.Color("#1a73e8"),
	Accent:     lipgloss.Color("#9334e6"),
	Text:       lipgloss.Color("#202124"),
	TextMuted:  lipgloss.Color("#5f6368"),
	Error:      lipgloss.Color("#d93025"),
	CodeBorder: lipgloss.Color("#dadce0"),
	CodeStyle:  "github",
}

// CurrentTheme is the theme used by default renderers
var CurrentTheme = Dark

// Lookup returns the named theme. "auto" and "" pick by terminal background.
func Lookup(name string) (Theme, error) {
	switch name {
	case "dark":
		return Dark, nil
	case "light":
		return Light, nil
	case "auto", "":
		if lipgloss.HasDarkBackground() {
			return Dark, nil
		}
		return Light, nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q", name)
}

// SetTheme sets the current theme
func SetTheme(t Theme) {
	CurrentTheme = t
}

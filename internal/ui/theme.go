package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the palette of the UI.
type Theme struct {
	Name string

	Background string
	Surface    string
	FocusBg    string

	SelectionBg   string
	SelectionText string
	Border        string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
	Title    lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),
	}
}

// LevelStyle colours a log level label.
func (s Styles) LevelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return s.DangerText
	case "WARN":
		return s.WarningText
	case "DEBUG":
		return s.FaintText
	default:
		return s.AccentText
	}
}

var themes = map[string]Theme{
	"Steam": steamTheme(),
	"Slate": slateTheme(),
	"Mono":  monoTheme(),
}

var themeOrder = []string{"Steam", "Slate", "Mono"}

// GetTheme returns a theme by name, falling back to Steam.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return steamTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func steamTheme() Theme {
	// Steam client palette
	return Theme{
		Name: "Steam",

		Background: "#171A21",
		Surface:    "#1B2838",
		FocusBg:    "#2A475E",

		SelectionBg:   "#2A475E",
		SelectionText: "#FFFFFF",
		Border:        "#3D4450",

		Text:    "#C7D5E0",
		Muted:   "#8F98A0",
		Faint:   "#556772",
		Accent:  "#66C0F4",
		Success: "#A4D007",
		Warning: "#E5B143",
		Danger:  "#C94A4A",
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		FocusBg:    "#283548",

		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50
		Border:        "#334155", // slate-700

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
	}
}

func monoTheme() Theme {
	return Theme{
		Name: "Mono",

		Background: "#000000",
		Surface:    "#1C1C1C",
		FocusBg:    "#303030",

		SelectionBg:   "#E4E4E4",
		SelectionText: "#000000",
		Border:        "#4E4E4E",

		Text:    "#E4E4E4",
		Muted:   "#A8A8A8",
		Faint:   "#6C6C6C",
		Accent:  "#FFFFFF",
		Success: "#D0D0D0",
		Warning: "#BCBCBC",
		Danger:  "#FFFFFF",
	}
}

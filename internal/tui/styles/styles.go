package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors pick the light or dark variant from the
// terminal background.
var (
	Primary     = lipgloss.AdaptiveColor{Light: "#1a5fb4", Dark: "#78aeed"}
	Secondary   = lipgloss.AdaptiveColor{Light: "#613583", Dark: "#c061cb"}
	Text        = lipgloss.AdaptiveColor{Light: "#1e1e1e", Dark: "#e6e6e6"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#6c6c6c", Dark: "#8a8a8a"}
	Background  = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#1c1c1c"}
	Subtle      = lipgloss.AdaptiveColor{Light: "#ebebeb", Dark: "#2a2a2a"}
	BorderColor = lipgloss.AdaptiveColor{Light: "#c0bfbc", Dark: "#4a4a4a"}
	Info        = lipgloss.AdaptiveColor{Light: "#1c71d8", Dark: "#62a0ea"}
	Warning     = lipgloss.AdaptiveColor{Light: "#c64600", Dark: "#f8e45c"}
	Error       = lipgloss.AdaptiveColor{Light: "#c01c28", Dark: "#f66151"}
	Success     = lipgloss.AdaptiveColor{Light: "#26a269", Dark: "#8ff0a4"}
	Highlight   = lipgloss.AdaptiveColor{Light: "#e5a50a", Dark: "#f9f06b"}
)

// BaseStyle returns the base style with foreground color
func BaseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Text)
}

func Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(TextMuted)
}

// Bold returns a bold style
func Bold() lipgloss.Style {
	return BaseStyle().Bold(true)
}

// Padded returns a style with horizontal padding
func Padded() lipgloss.Style {
	return BaseStyle().Padding(0, 1)
}

// Border returns a style with a rounded border
func Border() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor)
}

// FocusedBorder returns a style with a border using the focused border color
func FocusedBorder() lipgloss.Style {
	return Border().BorderForeground(Primary)
}

// Title renders a panel heading.
func Title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Primary).Bold(true)
}

// LevelStyle colors a log or status level.
func LevelStyle(level string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch level {
	case "info":
		return style.Foreground(Info)
	case "warn", "warning":
		return style.Foreground(Warning)
	case "error", "err":
		return style.Foreground(Error)
	case "debug":
		return style.Foreground(Success)
	default:
		return style.Foreground(Text)
	}
}

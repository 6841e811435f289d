// Package ui provides terminal styling for shieldctl output.
package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette
var (
	// Verdict colors
	Allow     = lipgloss.Color("#00D26A") // Green - traffic admitted
	Challenge = lipgloss.Color("#FFB800") // Amber - challenge issued
	Block     = lipgloss.Color("#FF3838") // Red - traffic refused

	// Classification colors
	Human      = lipgloss.Color("#00D26A")
	Suspicious = lipgloss.Color("#FFD93D")
	Bot        = lipgloss.Color("#FF6B6B")

	Muted = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	AllowStyle = lipgloss.NewStyle().
			Foreground(Allow).
			Bold(true)

	ChallengeStyle = lipgloss.NewStyle().
			Foreground(Challenge).
			Bold(true)

	BlockStyle = lipgloss.NewStyle().
			Foreground(Block).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(15)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	ReasonStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)
)

var noColorMu sync.Mutex

// SetNoColor disables colored output for piped or dumb terminals.
func SetNoColor(noColor bool) {
	noColorMu.Lock()
	defer noColorMu.Unlock()
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Verdict renders an admission verdict in its color.
func Verdict(v string) string {
	switch v {
	case "block":
		return BlockStyle.Render(v)
	case "challenge":
		return ChallengeStyle.Render(v)
	default:
		return AllowStyle.Render(v)
	}
}

// Classification renders a bot classification in its color.
func Classification(c string) string {
	switch c {
	case "bot":
		return lipgloss.NewStyle().Foreground(Bot).Bold(true).Render(c)
	case "suspicious":
		return lipgloss.NewStyle().Foreground(Suspicious).Render(c)
	default:
		return lipgloss.NewStyle().Foreground(Human).Render(c)
	}
}

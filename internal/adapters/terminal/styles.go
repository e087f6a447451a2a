package terminal

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

// Styles are the lipgloss styles used for terminal output.
type Styles struct {
	Title   lipgloss.Style
	Step    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	Prompt       lipgloss.Style
	Choice       lipgloss.Style
	ChoiceActive lipgloss.Style
}

// DefaultStyles returns the colour styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Step:    lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),

		Prompt:       lipgloss.NewStyle().Bold(true),
		Choice:       lipgloss.NewStyle().Foreground(colorMuted),
		ChoiceActive: lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true),
	}
}

// PlainStyles renders everything unstyled, for pipes and NO_COLOR.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:        plain,
		Step:         plain,
		Success:      plain,
		Warning:      plain,
		Error:        plain,
		Muted:        plain,
		Prompt:       plain,
		Choice:       plain,
		ChoiceActive: plain,
	}
}

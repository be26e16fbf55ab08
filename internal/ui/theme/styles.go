package theme

import "github.com/charmbracelet/lipgloss"

// Styles holds pre-computed Lip Gloss styles for the current theme.
type Styles struct {
	Border lipgloss.Style

	Title   lipgloss.Style
	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	URL     lipgloss.Style
	Key     lipgloss.Style
	Hint    lipgloss.Style

	Recording lipgloss.Style
	Idle      lipgloss.Style

	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	StatusBar     lipgloss.Style

	theme Theme
}

// NewStyles creates a Styles set from a Theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent),

		Title:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Normal:  lipgloss.NewStyle().Foreground(t.Text),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Error:   lipgloss.NewStyle().Foreground(t.Red),
		Success: lipgloss.NewStyle().Foreground(t.Green),
		Warning: lipgloss.NewStyle().Foreground(t.Yellow),
		URL:     lipgloss.NewStyle().Foreground(t.Blue).Underline(true),
		Key:     lipgloss.NewStyle().Foreground(t.Accent),
		Hint:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),

		Recording: lipgloss.NewStyle().Foreground(t.Red).Bold(true),
		Idle:      lipgloss.NewStyle().Foreground(t.Subtext),

		TableHeader: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(t.Muted).
			BorderBottom(true),
		TableSelected: lipgloss.NewStyle().
			Foreground(t.Text).
			Background(t.Overlay).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Background(t.Surface).
			Foreground(t.Text).
			Padding(0, 1),

		theme: t,
	}
}

// MethodStyle returns the style for an HTTP method.
func (s Styles) MethodStyle(method string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.theme.MethodColor(method)).Bold(true)
}

// StatusStyle returns the style for a status code.
func (s Styles) StatusStyle(code int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.theme.StatusColor(code))
}

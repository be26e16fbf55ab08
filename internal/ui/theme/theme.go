package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds all colors for the panel.
type Theme struct {
	Name string

	// Base colors
	Base    lipgloss.Color
	Surface lipgloss.Color
	Overlay lipgloss.Color

	// Text
	Text    lipgloss.Color
	Subtext lipgloss.Color
	Muted   lipgloss.Color

	// Accents
	Accent   lipgloss.Color
	Red      lipgloss.Color
	Peach    lipgloss.Color
	Yellow   lipgloss.Color
	Green    lipgloss.Color
	Teal     lipgloss.Color
	Blue     lipgloss.Color
	Lavender lipgloss.Color
}

// MethodColor returns the color for an HTTP method.
func (t Theme) MethodColor(method string) lipgloss.Color {
	switch method {
	case "GET":
		return t.Green
	case "POST":
		return t.Yellow
	case "PUT":
		return t.Blue
	case "PATCH":
		return t.Peach
	case "DELETE":
		return t.Red
	case "HEAD":
		return t.Teal
	case "OPTIONS":
		return t.Lavender
	default:
		return t.Text
	}
}

// StatusColor returns the color for a recorded status code: success below
// 300, warning below 500, error otherwise. Zero means no response.
func (t Theme) StatusColor(code int) lipgloss.Color {
	switch {
	case code <= 0:
		return t.Muted
	case code < 300:
		return t.Green
	case code < 500:
		return t.Yellow
	default:
		return t.Red
	}
}

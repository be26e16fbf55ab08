package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/apidoc-recorder/internal/ui/msgs"
	"github.com/sadopc/apidoc-recorder/internal/ui/theme"
)

// StatusBar is a full-width bottom status bar.
type StatusBar struct {
	recording bool
	count     int
	shown     int
	bytes     int64
	filter    string
	mode      msgs.AppMode
	hints     string
	width     int
	theme     theme.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(t theme.Theme) StatusBar {
	return StatusBar{theme: t, mode: msgs.ModeNormal}
}

// SetState sets the recording flag and entry count.
func (m *StatusBar) SetState(recording bool, count int) {
	m.recording = recording
	m.count = count
}

// SetShown sets how many rows pass the filter.
func (m *StatusBar) SetShown(n int) { m.shown = n }

// SetBytes sets the captured body size.
func (m *StatusBar) SetBytes(n int64) { m.bytes = n }

// SetFilter sets the active path filter.
func (m *StatusBar) SetFilter(q string) { m.filter = q }

// SetMode sets the current mode.
func (m *StatusBar) SetMode(mode msgs.AppMode) { m.mode = mode }

// SetHints sets the key hints rendered on the right.
func (m *StatusBar) SetHints(h string) { m.hints = h }

// SetWidth sets the available width.
func (m *StatusBar) SetWidth(w int) { m.width = w }

func (m StatusBar) seg(c lipgloss.Color, bold bool) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Background(m.theme.Surface).Bold(bold)
}

// View renders the status bar.
func (m StatusBar) View() string {
	barStyle := lipgloss.NewStyle().
		Background(m.theme.Surface).
		Foreground(m.theme.Text).
		Width(m.width)

	var left []string
	if m.recording {
		left = append(left, m.seg(m.theme.Red, true).Render("● Recording"))
	} else {
		left = append(left, m.seg(m.theme.Subtext, false).Render("○ Idle"))
	}

	count := strconv.Itoa(m.count) + " requests"
	if m.filter != "" {
		count = strconv.Itoa(m.shown) + "/" + count
	}
	left = append(left, m.seg(m.theme.Text, true).Render(count))
	if m.bytes > 0 {
		left = append(left, m.seg(m.theme.Subtext, false).Render(humanize.Bytes(uint64(m.bytes))))
	}
	if m.filter != "" {
		left = append(left, m.seg(m.theme.Teal, false).Render("/"+m.filter))
	}
	leftStr := strings.Join(left, m.seg(m.theme.Muted, false).Render(" │ "))

	modeStr := m.seg(m.theme.Accent, true).Render("[" + m.mode.String() + "]")
	hint := m.seg(m.theme.Muted, false).Render(m.hints)

	leftWidth := lipgloss.Width(leftStr)
	centerWidth := lipgloss.Width(modeStr)
	rightWidth := lipgloss.Width(hint)

	totalContent := leftWidth + centerWidth + rightWidth
	if totalContent+2 >= m.width {
		return barStyle.Render(" " + leftStr + " " + modeStr)
	}

	remaining := m.width - totalContent - 2
	gap1 := remaining / 2
	gap2 := remaining - gap1

	line := " " + leftStr +
		strings.Repeat(" ", gap1) + modeStr +
		strings.Repeat(" ", gap2) + hint

	return barStyle.Render(line)
}

// Package panel is the terminal view of a recording session: the request
// table, record controls, path filter, export and submit.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/export/har"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
	"github.com/sadopc/apidoc-recorder/internal/submit"
	"github.com/sadopc/apidoc-recorder/internal/ui/components"
	"github.com/sadopc/apidoc-recorder/internal/ui/layout"
	"github.com/sadopc/apidoc-recorder/internal/ui/msgs"
	"github.com/sadopc/apidoc-recorder/internal/ui/theme"
)

// Recorder is the store the panel drives.
type Recorder interface {
	Get() recorder.State
	Start() error
	Stop() error
	Clear() error
	Entries() []capture.Entry
	Subscribe() (<-chan recorder.State, func())
}

// Submitter sends the recording to the documentation backend.
type Submitter interface {
	Submit(ctx context.Context, scenario string, entries []capture.Entry) (submit.Result, error)
}

// Options configures the panel. Zero values get defaults.
type Options struct {
	ExportDir     string
	Redactor      *capture.Redactor
	Submitter     Submitter
	SubmitTimeout time.Duration
	Theme         theme.Theme
	Now           func() time.Time
	Copy          func(string) error
}

// Model is the root Bubble Tea model of the panel.
type Model struct {
	rec  Recorder
	opts Options
	keys KeyMap

	table    table.Model
	filter   textinput.Model
	scenario textinput.Model
	detail   viewport.Model
	status   components.StatusBar
	toast    components.Toast

	updates <-chan recorder.State
	cancel  func()

	state       recorder.State
	entries     []capture.Entry
	visible     []int
	detailEntry capture.Entry
	mode        msgs.AppMode
	submitting  bool
	docsURL     string

	theme  theme.Theme
	styles theme.Styles
	layout layout.PanelLayout
	width  int
	height int
	ready  bool
}

// New creates the panel and subscribes it to rec. Call Close when the
// program exits.
func New(rec Recorder, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.Default()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 2 * time.Minute
	}
	s := theme.NewStyles(opts.Theme)

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter by path"

	scenario := textinput.New()
	scenario.Prompt = "scenario: "
	scenario.Placeholder = "describe what you recorded"
	scenario.CharLimit = 500

	ts := table.DefaultStyles()
	ts.Header = s.TableHeader
	ts.Selected = s.TableSelected
	tbl := table.New(table.WithFocused(true), table.WithStyles(ts))

	keys := DefaultKeyMap()
	status := components.NewStatusBar(opts.Theme)
	status.SetHints(help.New().ShortHelpView(keys.ShortHelp()))

	updates, cancel := rec.Subscribe()
	m := Model{
		rec:      rec,
		opts:     opts,
		keys:     keys,
		table:    tbl,
		filter:   filter,
		scenario: scenario,
		detail:   viewport.New(0, 0),
		status:   status,
		toast:    components.NewToast(opts.Theme),
		updates:  updates,
		cancel:   cancel,
		mode:     msgs.ModeNormal,
		theme:    opts.Theme,
		styles:   s,
	}
	m.width, m.height = 80, 24
	m.resize()
	m.state = rec.Get()
	m.entries = rec.Entries()
	m.applyFilter()
	return m
}

// Close unsubscribes the panel from the store.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForState(m.updates)
}

func waitForState(ch <-chan recorder.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return msgs.SubscriptionClosedMsg{}
		}
		return msgs.StateChangedMsg{State: st}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case msgs.StateChangedMsg:
		m.state = msg.State
		m.entries = m.rec.Entries()
		m.applyFilter()
		return m, waitForState(m.updates)

	case msgs.SubscriptionClosedMsg:
		return m, nil

	case msgs.ExportDoneMsg:
		switch {
		case errors.Is(msg.Err, har.ErrNoEntries):
			return m, m.toast.Show("No requests to export", true)
		case msg.Err != nil:
			return m, m.toast.Show("Export failed: "+msg.Err.Error(), true)
		}
		return m, m.toast.Show(fmt.Sprintf("Exported %d requests to %s", msg.Count, msg.Path), false)

	case msgs.SubmitDoneMsg:
		m.submitting = false
		switch {
		case errors.Is(msg.Err, submit.ErrEmptyScenario):
			return m, m.toast.Show("Please enter a scenario description", true)
		case errors.Is(msg.Err, submit.ErrNoEntries):
			return m, m.toast.Show("No requests to send", true)
		case msg.Err != nil:
			return m, m.toast.Show(msg.Err.Error(), true)
		}
		m.docsURL = msg.Result.DocsURL
		return m, m.toast.Show(fmt.Sprintf("Done! Session: %s. View at %s", msg.Result.SessionID, msg.Result.DocsURL), false)

	case msgs.CopiedMsg:
		if msg.Err != nil {
			return m, m.toast.Show("Clipboard error: "+msg.Err.Error(), true)
		}
		return m, m.toast.Show("Copied "+msg.What, false)

	case tea.KeyMsg:
		switch m.mode {
		case msgs.ModeFilter:
			return m.updateFilter(msg)
		case msgs.ModeScenario:
			return m.updateScenario(msg)
		case msgs.ModeDetail:
			return m.updateDetail(msg)
		}
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.toast, cmd = m.toast.Update(msg)
	cmds = append(cmds, cmd)
	switch m.mode {
	case msgs.ModeFilter:
		m.filter, cmd = m.filter.Update(msg)
		cmds = append(cmds, cmd)
	case msgs.ModeScenario:
		m.scenario, cmd = m.scenario.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Record):
		if err := m.rec.Start(); err != nil {
			return m, m.toast.Show("Start failed: "+err.Error(), true)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		if err := m.rec.Stop(); err != nil {
			return m, m.toast.Show("Stop failed: "+err.Error(), true)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if err := m.rec.Clear(); err != nil {
			return m, m.toast.Show("Clear failed: "+err.Error(), true)
		}
		m.docsURL = ""
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.setMode(msgs.ModeFilter)
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Submit):
		if m.opts.Submitter == nil {
			return m, m.toast.Show("No backend configured", true)
		}
		if m.submitting {
			return m, nil
		}
		m.setMode(msgs.ModeScenario)
		return m, m.scenario.Focus()

	case key.Matches(msg, m.keys.Detail):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.detailEntry = e
		m.detail.SetContent(renderDetail(e, m.styles, m.opts.Now()))
		m.detail.GotoTop()
		m.setMode(msgs.ModeDetail)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.copyCmd(e.URL, "URL")

	case key.Matches(msg, m.keys.CopyDoc):
		if m.docsURL == "" {
			return m, m.toast.Show("Nothing submitted yet", true)
		}
		return m, m.copyCmd(m.docsURL, "docs URL")
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.SetValue("")
		m.filter.Blur()
		m.setMode(msgs.ModeNormal)
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filter.Blur()
		m.setMode(msgs.ModeNormal)
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updateScenario(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.scenario.Blur()
		m.setMode(msgs.ModeNormal)
		return m, nil
	case tea.KeyEnter:
		scenario := strings.TrimSpace(m.scenario.Value())
		if scenario == "" {
			return m, m.toast.Show("Please enter a scenario description", true)
		}
		m.scenario.Blur()
		m.setMode(msgs.ModeNormal)
		m.submitting = true
		return m, m.submitCmd(scenario)
	}
	var cmd tea.Cmd
	m.scenario, cmd = m.scenario.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back, m.keys.Detail, m.keys.Quit):
		m.setMode(msgs.ModeNormal)
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd(m.detailEntry.URL, "URL")
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) exportCmd() tea.Cmd {
	entries := m.opts.Redactor.Apply(m.rec.Entries())
	dir, now := m.opts.ExportDir, m.opts.Now()
	return func() tea.Msg {
		path, err := har.WriteFile(dir, entries, now)
		return msgs.ExportDoneMsg{Path: path, Count: len(entries), Err: err}
	}
}

func (m Model) submitCmd(scenario string) tea.Cmd {
	entries := m.opts.Redactor.Apply(m.rec.Entries())
	sub, timeout := m.opts.Submitter, m.opts.SubmitTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := sub.Submit(ctx, scenario, entries)
		return msgs.SubmitDoneMsg{Result: res, Err: err}
	}
}

func (m Model) copyCmd(text, what string) tea.Cmd {
	cp := m.opts.Copy
	return func() tea.Msg {
		return msgs.CopiedMsg{What: what, Err: cp(text)}
	}
}

// refresh reloads state and rows after a local mutation.
func (m *Model) refresh() {
	m.state = m.rec.Get()
	m.entries = m.rec.Entries()
	m.applyFilter()
}

func (m *Model) setMode(mode msgs.AppMode) {
	m.mode = mode
	m.status.SetMode(mode)
	m.resize()
}

// applyFilter rebuilds the visible rows: entries whose lower-cased path
// contains the lower-cased filter text.
func (m *Model) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = make([]int, 0, len(m.entries))
	rows := make([]table.Row, 0, len(m.entries))
	var size int64
	for i, e := range m.entries {
		size += int64(len(e.RequestBody) + len(e.ResponseBody))
		if q != "" && !strings.Contains(strings.ToLower(e.Path), q) {
			continue
		}
		m.visible = append(m.visible, i)
		rows = append(rows, entryRow(i, e))
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}

	m.status.SetState(m.state.Recording, m.state.Count)
	m.status.SetShown(len(rows))
	m.status.SetBytes(size)
	m.status.SetFilter(q)
}

func entryRow(i int, e capture.Entry) table.Row {
	seq := e.Seq
	if seq == 0 {
		seq = i + 1
	}
	return table.Row{
		strconv.Itoa(seq),
		e.Method,
		e.Path,
		strconv.Itoa(e.StatusCode),
		strconv.FormatInt(e.LatencyMs, 10) + "ms",
	}
}

func (m Model) selected() (capture.Entry, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return capture.Entry{}, false
	}
	return m.entries[m.visible[c]], true
}

func (m Model) inputLine() bool {
	return m.mode == msgs.ModeFilter || m.mode == msgs.ModeScenario || m.filter.Value() != ""
}

func (m *Model) resize() {
	m.layout = layout.Calculate(m.width, m.height, m.inputLine())
	l := m.layout
	m.table.SetColumns([]table.Column{
		{Title: "#", Width: l.SeqWidth},
		{Title: "METHOD", Width: l.MethodWidth},
		{Title: "PATH", Width: l.PathWidth},
		{Title: "STATUS", Width: l.StatusWidth},
		{Title: "LATENCY", Width: l.LatencyWidth},
	})
	m.table.SetWidth(m.width - 2)
	m.table.SetHeight(l.TableHeight + 2)
	m.detail.Width = m.width - 2
	m.detail.Height = l.TableHeight + 2
	m.filter.Width = m.width - 4
	m.scenario.Width = m.width - 12
	m.status.SetWidth(m.width)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := m.styles.Title.Render("API Doc Recorder")
	if m.submitting {
		title += "  " + m.styles.Warning.Render("sending to backend...")
	}

	var body string
	switch {
	case m.mode == msgs.ModeDetail:
		body = m.detail.View()
	case len(m.visible) == 0:
		text := "No requests captured yet. Press r to record."
		if len(m.entries) > 0 {
			text = "No requests match the filter."
		}
		body = lipgloss.Place(m.width-2, m.layout.TableHeight+2, lipgloss.Center, lipgloss.Center,
			m.styles.Hint.Render(text))
	default:
		body = m.table.View()
	}
	box := m.styles.Border.Width(m.width - 2).Render(body)

	parts := []string{title, box}
	switch {
	case m.mode == msgs.ModeScenario:
		parts = append(parts, m.scenario.View())
	case m.inputLine():
		parts = append(parts, m.filter.View())
	}
	parts = append(parts, m.status.View())
	main := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.toast.Visible {
		main = overlayTopRight(main, m.toast.View(), m.width)
	}
	return main
}

func overlayTopRight(bg, overlay string, width int) string {
	overlayWidth := lipgloss.Width(overlay)
	gap := width - overlayWidth - 2
	if gap < 0 {
		gap = 0
	}
	positioned := lipgloss.NewStyle().MarginLeft(gap).Render(overlay)
	return positioned + "\n" + bg
}

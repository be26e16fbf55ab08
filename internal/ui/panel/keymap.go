package panel

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the panel keybindings.
type KeyMap struct {
	Record  key.Binding
	Stop    key.Binding
	Clear   key.Binding
	Filter  key.Binding
	Export  key.Binding
	Submit  key.Binding
	Detail  key.Binding
	Copy    key.Binding
	CopyDoc key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "record"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Submit: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "submit"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "detail"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy url"),
		),
		CopyDoc: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy docs url"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Stop, k.Clear, k.Filter, k.Export, k.Submit, k.Detail, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Record, k.Stop, k.Clear},
		{k.Filter, k.Detail, k.Back},
		{k.Export, k.Submit, k.Copy, k.CopyDoc, k.Quit},
	}
}

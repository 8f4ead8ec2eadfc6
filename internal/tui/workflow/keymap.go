package workflow

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the breathe phase.
type KeyMap struct {
	Loop    key.Binding
	Restart key.Binding
}

// DefaultKeyMap returns the default breathe phase key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Loop: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle loop"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
	}
}

// ShortHelp returns the short help bindings for the breathe phase.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Loop, k.Restart}
}

// FullHelp returns the full help bindings for the breathe phase.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Loop, k.Restart},
	}
}

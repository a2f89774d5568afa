package review

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Decisions
	Accept    key.Binding
	Skip      key.Binding
	AcceptAll key.Binding

	// Quit
	Quit      key.Binding
	ForceQuit key.Binding
}

var defaultKeys = keyMap{
	Accept: key.NewBinding(
		key.WithKeys("a", "y"),
		key.WithHelp("a", "accept"),
	),
	Skip: key.NewBinding(
		key.WithKeys("s", "n"),
		key.WithHelp("s", "skip"),
	),
	AcceptAll: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "accept rest"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "abort"),
	),
}

package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the notification center.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Read state
	MarkRead    key.Binding
	MarkAllRead key.Binding

	// Removal
	Dismiss     key.Binding
	ClearAll    key.Binding
	ClearAlerts key.Binding

	// Scheduler
	CheckNow key.Binding

	// Help toggle
	Help key.Binding

	// Quit
	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "mark all read"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "dismiss"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		ClearAlerts: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "clear alerts"),
		),
		CheckNow: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-check now"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.MarkRead, k.Dismiss, k.CheckNow, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MarkRead, k.MarkAllRead},
		{k.Dismiss, k.ClearAll, k.ClearAlerts},
		{k.CheckNow, k.Help, k.Quit},
	}
}

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all swipe key bindings with built-in help text.
type KeyMap struct {
	// Decisions
	Delete  key.Binding
	Keep    key.Binding
	Release key.Binding

	// Keyboard drag
	NudgeLeft  key.Binding
	NudgeRight key.Binding

	// Post body
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Global
	History   key.Binding
	Back      key.Binding
	Retry     key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Delete: key.NewBinding(
			key.WithKeys("left", "d"),
			key.WithHelp("←/d", "delete"),
		),
		Keep: key.NewBinding(
			key.WithKeys("right", "k"),
			key.WithHelp("→/k", "keep"),
		),
		Release: key.NewBinding(
			key.WithKeys(" ", "space", "enter"),
			key.WithHelp("space", "release drag"),
		),

		NudgeLeft: key.NewBinding(
			key.WithKeys("h", "shift+left"),
			key.WithHelp("h", "drag left"),
		),
		NudgeRight: key.NewBinding(
			key.WithKeys("l", "shift+right"),
			key.WithHelp("l", "drag right"),
		),

		ScrollUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "scroll post"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "scroll post"),
		),

		History: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "delete history"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "back"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Delete, k.Keep, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Delete, k.Keep, k.Release},
		{k.NudgeLeft, k.NudgeRight, k.ScrollUp, k.ScrollDown},
		{k.History, k.Retry, k.Help, k.Quit, k.ForceQuit},
	}
}

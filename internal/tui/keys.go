package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the timer.
type KeyMap struct {
	// Workout
	Primary key.Binding // start when idle, dismiss when done
	Pause   key.Binding
	End     key.Binding

	// Settings
	RoundLengthUp   key.Binding
	RoundLengthDown key.Binding
	RestLengthUp    key.Binding
	RestLengthDown  key.Binding
	RoundsUp        key.Binding
	RoundsDown      key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Primary: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "start/close"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space/p", "pause"),
		),
		End: key.NewBinding(
			key.WithKeys("e", "esc"),
			key.WithHelp("e", "end"),
		),
		RoundLengthUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "round +5s"),
		),
		RoundLengthDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "round -5s"),
		),
		RestLengthUp: key.NewBinding(
			key.WithKeys("}"),
			key.WithHelp("}", "rest +5s"),
		),
		RestLengthDown: key.NewBinding(
			key.WithKeys("{"),
			key.WithHelp("{", "rest -5s"),
		),
		RoundsUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "add round"),
		),
		RoundsDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "drop round"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Primary, k.Pause, k.End, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Primary, k.Pause, k.End},
		{k.RoundLengthUp, k.RoundLengthDown, k.RestLengthUp, k.RestLengthDown},
		{k.RoundsUp, k.RoundsDown, k.Help, k.Quit},
	}
}

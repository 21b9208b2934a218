package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Raise  key.Binding
	Lower  key.Binding
	Toggle key.Binding
	Mode   key.Binding
	Fit    key.Binding
	Reset  key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Raise:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "raise")),
		Lower:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "lower")),
		Toggle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "yield/spread")),
		Mode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "level/change")),
		Fit:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit method")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Reload: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload curve")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Raise, k.Lower, k.Toggle, k.Mode, k.Fit, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Raise, k.Lower},
		{k.Toggle, k.Mode, k.Fit},
		{k.Reset, k.Reload, k.Quit},
	}
}

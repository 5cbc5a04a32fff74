package ui

import "github.com/charmbracelet/bubbles/key"

var keys = struct {
	Quit       key.Binding
	Focus      key.Binding
	FocusBack  key.Binding
	Refresh    key.Binding
	RefreshAll key.Binding
	Theme      key.Binding
	Ask        key.Binding
	Mode       key.Binding
	Debug      key.Binding
	Submit     key.Binding
	Escape     key.Binding
}{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Focus:      key.NewBinding(key.WithKeys("tab")),
	FocusBack:  key.NewBinding(key.WithKeys("shift+tab")),
	Refresh:    key.NewBinding(key.WithKeys("r")),
	RefreshAll: key.NewBinding(key.WithKeys("R")),
	Theme:      key.NewBinding(key.WithKeys("t")),
	Ask:        key.NewBinding(key.WithKeys("/")),
	Mode:       key.NewBinding(key.WithKeys("m")),
	Debug:      key.NewBinding(key.WithKeys("D")),
	Submit:     key.NewBinding(key.WithKeys("enter")),
	Escape:     key.NewBinding(key.WithKeys("esc")),
}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit           key.Binding
	Add            key.Binding
	Edit           key.Binding
	Toggle         key.Binding
	Delete         key.Binding
	Undo           key.Binding
	ClearCompleted key.Binding
	ToggleAll      key.Binding
	All            key.Binding
	Active         key.Binding
	Completed      key.Binding
	NextFilter     key.Binding

	Submit key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Quit:           key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	Add:            key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:           key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Undo:           key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	ClearCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
	ToggleAll:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all")),
	All:            key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
	Active:         key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
	Completed:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
	NextFilter:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next filter")),

	Submit: key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc")),
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.NextFilter}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{
		k.Add, k.Edit, k.Toggle, k.Delete, k.Undo,
		k.ClearCompleted, k.ToggleAll, k.All, k.Active, k.Completed, k.NextFilter,
	}
}

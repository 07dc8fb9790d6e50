package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	SwitchPane   key.Binding
	Select       key.Binding
	NewTask      key.Binding
	EditTask     key.Binding
	Toggle       key.Binding
	Delete       key.Binding
	NewProject   key.Binding
	Search       key.Binding
	CycleSort    key.Binding
	ToggleTheme  key.Binding
	ExportFile   key.Binding
	ExportCopy   key.Binding
	Help         key.Binding
	Quit         key.Binding
	FormNext     key.Binding
	FormPrev     key.Binding
	FormSave     key.Binding
	Cancel       key.Binding
	Confirm      key.Binding
	Deny         key.Binding
	PriorityNext key.Binding
	PriorityPrev key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SwitchPane:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Select:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		NewTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		EditTask:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Toggle:       key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done/undone")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		NewProject:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		CycleSort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		ToggleTheme:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		ExportFile:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export csv")),
		ExportCopy:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "copy csv")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		FormNext:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		FormPrev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		FormSave:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Confirm:      key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		Deny:         key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		PriorityNext: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "raise")),
		PriorityPrev: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "lower")),
	}
}

func (k keyMap) normalHelp() []key.Binding {
	return []key.Binding{k.SwitchPane, k.Select, k.NewTask, k.EditTask, k.Toggle, k.Delete, k.NewProject, k.Search, k.CycleSort, k.ToggleTheme, k.ExportFile, k.ExportCopy, k.Quit}
}

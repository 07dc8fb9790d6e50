package tui

import (
	"strings"

	"protask/internal/model"
	"protask/internal/state"
	"protask/internal/view"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField int

const (
	fieldText formField = iota
	fieldProject
	fieldPriority
	fieldDue
	fieldNotes
	fieldCount
)

var priorities = []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}

// taskForm is the add/edit modal. It never touches the store; the app turns input()
// into an UpsertTask call.
type taskForm struct {
	title    string
	taskID   string
	focus    formField
	text     textinput.Model
	project  textinput.Model
	due      textinput.Model
	notes    textarea.Model
	priority int
	err      string
}

func newTaskForm(f view.TaskForm) taskForm {
	tf := taskForm{title: f.Title, taskID: f.TaskID, priority: 1}

	tf.text = textinput.New()
	tf.text.Placeholder = "What needs doing?"
	tf.text.CharLimit = 500
	tf.text.SetValue(f.Text)

	tf.project = textinput.New()
	tf.project.Placeholder = "Project (new names are created)"
	tf.project.ShowSuggestions = true
	tf.project.SetSuggestions(f.Suggestions)
	tf.project.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+y"))
	tf.project.SetValue(f.ProjectName)

	tf.due = textinput.New()
	tf.due.Placeholder = "YYYY-MM-DD"
	tf.due.CharLimit = 10
	tf.due.SetValue(f.DueDate)

	tf.notes = textarea.New()
	tf.notes.Placeholder = "Notes (markdown, `code` and ``` blocks)"
	tf.notes.ShowLineNumbers = false
	tf.notes.SetHeight(4)
	tf.notes.SetValue(f.Notes)

	if p, ok := model.ParsePriority(f.Priority); ok {
		for i, x := range priorities {
			if x == p {
				tf.priority = i
			}
		}
	}
	tf.setFocus(fieldText)
	return tf
}

func (f *taskForm) setFocus(field formField) {
	f.focus = (field%fieldCount + fieldCount) % fieldCount
	f.text.Blur()
	f.project.Blur()
	f.due.Blur()
	f.notes.Blur()
	switch f.focus {
	case fieldText:
		f.text.Focus()
	case fieldProject:
		f.project.Focus()
	case fieldDue:
		f.due.Focus()
	case fieldNotes:
		f.notes.Focus()
	}
}

func (f *taskForm) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.text.Width = w - 2
	f.project.Width = w - 2
	f.due.Width = 12
	f.notes.SetWidth(w)
}

func (f taskForm) input() state.TaskInput {
	return state.TaskInput{
		ProjectName: f.project.Value(),
		Text:        f.text.Value(),
		Priority:    string(priorities[f.priority]),
		DueDate:     f.due.Value(),
		Notes:       f.notes.Value(),
	}
}

// update handles navigation and forwards everything else to the focused field.
// save is true when the user asked to submit.
func (f taskForm) update(msg tea.Msg, keys keyMap) (taskForm, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.FormSave):
			return f, nil, true
		case key.Matches(km, keys.FormNext):
			f.setFocus(f.focus + 1)
			return f, nil, false
		case key.Matches(km, keys.FormPrev):
			f.setFocus(f.focus - 1)
			return f, nil, false
		case km.Type == tea.KeyEnter && f.focus != fieldNotes:
			return f, nil, true
		}
		if f.focus == fieldPriority {
			switch {
			case key.Matches(km, keys.PriorityNext):
				f.priority = min(f.priority+1, len(priorities)-1)
			case key.Matches(km, keys.PriorityPrev):
				f.priority = max(f.priority-1, 0)
			}
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldText:
		f.text, cmd = f.text.Update(msg)
	case fieldProject:
		f.project, cmd = f.project.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	case fieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	}
	return f, cmd, false
}

func (f taskForm) view() string {
	label := func(field formField, s string) string {
		st := styleMuted()
		if f.focus == field {
			st = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
		}
		return st.Render(s)
	}

	var prio []string
	for i, p := range priorities {
		s := " " + string(p) + " "
		if i == f.priority {
			s = stylePriority(p).Reverse(true).Render(s)
		}
		prio = append(prio, s)
	}

	lines := []string{
		styleTitle().Render(f.title),
		"",
		label(fieldText, "Task"),
		f.text.View(),
		label(fieldProject, "Project"),
		f.project.View(),
		label(fieldPriority, "Priority"),
		strings.Join(prio, " "),
		label(fieldDue, "Due date"),
		f.due.View(),
		label(fieldNotes, "Notes"),
		f.notes.View(),
	}
	if f.err != "" {
		lines = append(lines, "", styleError().Render(f.err))
	}
	lines = append(lines, "", styleMuted().Render("tab/shift+tab: field   ←/→: priority   ctrl+y: accept suggestion   enter/ctrl+s: save   esc: cancel"))
	return strings.Join(lines, "\n")
}

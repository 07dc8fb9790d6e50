package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"protask/internal/export"
	"protask/internal/model"
	"protask/internal/state"
	"protask/internal/view"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeForm
	modeNewProject
	modeConfirm
)

type pane int

const (
	paneProjects pane = iota
	paneTasks
)

const (
	opSaveTask      = "task.save"
	opCreateProject = "project.create"
	opExport        = "export"
	flashFor        = 4 * time.Second
	changeBuffer    = 32
)

type changeMsg state.Change

type mutationDoneMsg struct {
	op     string
	status string
	err    error
}

type flashClearMsg struct{ seq int }

type appModel struct {
	ctx       context.Context
	st        *state.Store
	logger    *slog.Logger
	exportDir string
	clip      func(string) error

	changes     chan state.Change
	unsubscribe func()

	keys  keyMap
	snap  *model.Snapshot
	theme model.Theme

	mode     mode
	pane     pane
	showHelp bool
	width    int
	height   int

	projects   list.Model
	tasks      list.Model
	search     textinput.Model
	newProject textinput.Model
	projectErr string
	form       taskForm

	confirm      state.Confirmation
	confirmFocus confirmFocus

	status    string
	statusErr bool
	flashSeq  int
}

func newAppModel(ctx context.Context, st *state.Store, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exportDir := opts.ExportDir
	if strings.TrimSpace(exportDir) == "" {
		exportDir = "."
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := appModel{
		ctx:       ctx,
		st:        st,
		logger:    logger,
		exportDir: exportDir,
		clip:      copyFn,
		keys:      defaultKeyMap(),
		projects:  newPaneList(projectDelegate{}, "Projects"),
		tasks:     newPaneList(taskDelegate{}, view.AllTasksName),
		pane:      paneTasks,
	}

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "search text and notes"

	m.newProject = textinput.New()
	m.newProject.Prompt = "Project name: "
	m.newProject.CharLimit = 120

	ch := make(chan state.Change, changeBuffer)
	m.changes = ch
	// Non-blocking so a mutation never waits on the UI loop.
	m.unsubscribe = st.Subscribe(func(c state.Change) {
		select {
		case ch <- c:
		default:
		}
	})

	m.refresh()
	m.selectActiveProject()
	return m
}

func waitForChange(ch <-chan state.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

func (m appModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// refresh re-derives both lists from the store, keeping the cursor on the same
// project and task where they still exist.
func (m *appModel) refresh() {
	snap := m.st.Snapshot()
	m.snap = snap
	if snap.Theme != m.theme {
		m.theme = snap.Theme
		applyTheme(m.theme)
	}

	prevProject := m.selectedProjectRow().ID
	rows := view.ProjectList(snap)
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, projectItem{row: r})
	}
	m.projects.SetItems(items)
	m.projects.Select(indexOf(items, prevProject))

	prevTask := ""
	if t, ok := m.selectedTask(); ok {
		prevTask = t.Task.ID
	}
	tl := view.TaskList(snap, view.FiltersOf(snap), m.st.Now())
	m.tasks.Title = tl.Title
	items = make([]list.Item, 0, len(tl.Rows))
	for _, r := range tl.Rows {
		items = append(items, taskItem{row: r})
	}
	m.tasks.SetItems(items)
	m.tasks.Select(indexOf(items, prevTask))
}

func (m *appModel) selectActiveProject() {
	for i, it := range m.projects.Items() {
		if p, ok := it.(projectItem); ok && p.row.Active {
			m.projects.Select(i)
			return
		}
	}
}

func indexOf(items []list.Item, id string) int {
	if id == "" {
		return 0
	}
	for i, it := range items {
		switch x := it.(type) {
		case projectItem:
			if x.row.ID == id {
				return i
			}
		case taskItem:
			if x.row.Task.ID == id {
				return i
			}
		}
	}
	return 0
}

func (m appModel) selectedProjectRow() view.ProjectRow {
	if p, ok := m.projects.SelectedItem().(projectItem); ok {
		return p.row
	}
	return view.ProjectRow{}
}

func (m appModel) selectedTask() (view.TaskRow, bool) {
	if t, ok := m.tasks.SelectedItem().(taskItem); ok {
		return t.row, true
	}
	return view.TaskRow{}, false
}

func (m *appModel) flash(msg string, isErr bool) tea.Cmd {
	m.flashSeq++
	m.status = msg
	m.statusErr = isErr
	seq := m.flashSeq
	return tea.Tick(flashFor, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

// mutate runs fn off the UI loop; the result comes back as a mutationDoneMsg.
func (m appModel) mutate(op string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		status, err := fn(ctx)
		return mutationDoneMsg{op: op, status: status, err: err}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case changeMsg:
		m.logger.Debug("store changed", "op", msg.Op, "id", msg.ID)
		m.refresh()
		return m, waitForChange(m.changes)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeNewProject:
			return m.updateNewProject(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	// Cursor blinks and other internal messages go to whatever is focused.
	var cmd tea.Cmd
	switch m.mode {
	case modeForm:
		m.form, cmd, _ = m.form.update(msg, m.keys)
	case modeSearch:
		m.search, cmd = m.search.Update(msg)
	case modeNewProject:
		m.newProject, cmd = m.newProject.Update(msg)
	}
	return m, cmd
}

func (m appModel) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("action failed", "op", msg.op, "error", msg.err)
		if state.IsPersistence(msg.err) {
			// The change is applied in memory even though it was not written.
			m.refresh()
			m.mode = modeNormal
			return m, m.flash("Not saved: "+msg.err.Error(), true)
		}
		if m.mode == modeForm && msg.op == opSaveTask {
			m.form.err = msg.err.Error()
			return m, nil
		}
		if m.mode == modeNewProject && msg.op == opCreateProject {
			m.projectErr = msg.err.Error()
			return m, nil
		}
		return m, m.flash(msg.err.Error(), true)
	}

	if msg.op == opSaveTask || msg.op == opCreateProject {
		m.mode = modeNormal
	}
	m.refresh()
	if msg.op == opCreateProject {
		m.selectActiveProject()
	}
	if msg.status == "" {
		return m, nil
	}
	return m, m.flash(msg.status, false)
}

func (m appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, k.SwitchPane):
		if m.pane == paneProjects {
			m.pane = paneTasks
		} else {
			m.pane = paneProjects
		}
		return m, nil

	case key.Matches(msg, k.Select) && m.pane == paneProjects:
		id := m.selectedProjectRow().ID
		return m, m.mutate("project.select", func(ctx context.Context) (string, error) {
			return "", m.st.SetSelectedProject(ctx, id)
		})

	case key.Matches(msg, k.NewTask):
		return m.openForm("")

	case (key.Matches(msg, k.EditTask) || key.Matches(msg, k.Select)) && m.pane == paneTasks:
		if t, ok := m.selectedTask(); ok {
			return m.openForm(t.Task.ID)
		}
		return m, nil

	case key.Matches(msg, k.Toggle) && m.pane == paneTasks:
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		id := t.Task.ID
		return m, m.mutate("task.toggle", func(ctx context.Context) (string, error) {
			_, err := m.st.ToggleComplete(ctx, id)
			return "", err
		})

	case key.Matches(msg, k.Delete):
		return m.requestDelete()

	case key.Matches(msg, k.NewProject):
		m.mode = modeNewProject
		m.newProject.SetValue("")
		m.projectErr = ""
		return m, m.newProject.Focus()

	case key.Matches(msg, k.Search):
		m.mode = modeSearch
		m.search.SetValue(m.snap.SearchTerm)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, k.CycleSort):
		next := nextSortOrder(m.snap.SortOrder)
		return m, m.mutate("filter.sort", func(ctx context.Context) (string, error) {
			return "Sorted by " + sortLabel(next), m.st.SetSortOrder(ctx, string(next))
		})

	case key.Matches(msg, k.ToggleTheme):
		return m, m.mutate("theme.toggle", func(ctx context.Context) (string, error) {
			t, err := m.st.ToggleTheme(ctx)
			return "Theme: " + string(t), err
		})

	case key.Matches(msg, k.ExportFile):
		return m, m.exportFileCmd()

	case key.Matches(msg, k.ExportCopy):
		return m, m.exportClipboardCmd()
	}

	var cmd tea.Cmd
	if m.pane == paneProjects {
		m.projects, cmd = m.projects.Update(msg)
	} else {
		m.tasks, cmd = m.tasks.Update(msg)
	}
	return m, cmd
}

func (m appModel) openForm(taskID string) (tea.Model, tea.Cmd) {
	m.form = newTaskForm(view.EditForm(m.snap, taskID, m.st.Now()))
	m.form.setWidth(m.modalWidth() - 6)
	m.mode = modeForm
	return m, textinput.Blink
}

func (m appModel) requestDelete() (tea.Model, tea.Cmd) {
	var (
		c   state.Confirmation
		err error
	)
	if m.pane == paneProjects {
		row := m.selectedProjectRow()
		if row.Synthetic || row.ID == "" {
			return m, m.flash(view.AllTasksName+" cannot be deleted", true)
		}
		c, err = m.st.RequestDeleteProject(row.ID)
	} else {
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		c, err = m.st.RequestDeleteTask(t.Task.ID)
	}
	if err != nil {
		return m, m.flash(err.Error(), true)
	}
	m.confirm = c
	m.confirmFocus = confirmFocusCancel
	m.mode = modeConfirm
	return m, nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	doConfirm := func() (tea.Model, tea.Cmd) {
		c := m.confirm
		m.mode = modeNormal
		m.confirm = state.Confirmation{}
		return m, m.mutate(string(c.Action), func(ctx context.Context) (string, error) {
			return "Deleted", m.st.Confirm(ctx, c)
		})
	}
	switch {
	case key.Matches(msg, k.Confirm):
		return doConfirm()
	case key.Matches(msg, k.Deny):
		m.mode = modeNormal
		m.confirm = state.Confirmation{}
		return m, nil
	case msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyLeft || msg.Type == tea.KeyRight:
		if m.confirmFocus == confirmFocusCancel {
			m.confirmFocus = confirmFocusConfirm
		} else {
			m.confirmFocus = confirmFocusCancel
		}
		return m, nil
	case msg.Type == tea.KeyEnter:
		if m.confirmFocus == confirmFocusConfirm {
			return doConfirm()
		}
		m.mode = modeNormal
		m.confirm = state.Confirmation{}
		return m, nil
	}
	return m, nil
}

func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.search.Blur()
		m.search.SetValue("")
		m.st.SetSearchTerm("")
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeNormal
		m.search.Blur()
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.st.SetSearchTerm(v)
		m.refresh()
	}
	return m, cmd
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m.mode = modeNormal
		return m, nil
	}
	var (
		cmd  tea.Cmd
		save bool
	)
	m.form, cmd, save = m.form.update(msg, m.keys)
	if !save {
		return m, cmd
	}
	m.form.err = ""
	taskID := m.form.taskID
	in := m.form.input()
	verb := "Added"
	if taskID != "" {
		verb = "Updated"
	}
	return m, m.mutate(opSaveTask, func(ctx context.Context) (string, error) {
		t, err := m.st.UpsertTask(ctx, taskID, in)
		return fmt.Sprintf("%s %q", verb, t.Text), err
	})
}

func (m appModel) updateNewProject(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.newProject.Blur()
		return m, nil
	case tea.KeyEnter:
		m.projectErr = ""
		name := m.newProject.Value()
		return m, m.mutate(opCreateProject, func(ctx context.Context) (string, error) {
			p, err := m.st.CreateProject(ctx, name)
			return "Created project " + p.Name, err
		})
	}
	var cmd tea.Cmd
	m.newProject, cmd = m.newProject.Update(msg)
	return m, cmd
}

func (m appModel) exportFileCmd() tea.Cmd {
	snap := m.st.Snapshot()
	now := m.st.Now()
	path := filepath.Join(m.exportDir, export.Filename)
	return func() tea.Msg {
		if err := os.WriteFile(path, export.Bytes(snap, now), 0o644); err != nil {
			return mutationDoneMsg{op: opExport, err: fmt.Errorf("export: %w", err)}
		}
		return mutationDoneMsg{op: opExport, status: fmt.Sprintf("Exported %d task(s) to %s", len(snap.Tasks), path)}
	}
}

func (m appModel) exportClipboardCmd() tea.Cmd {
	snap := m.st.Snapshot()
	now := m.st.Now()
	copyFn := m.clip
	return func() tea.Msg {
		if err := copyFn(string(export.Bytes(snap, now))); err != nil {
			return mutationDoneMsg{op: opExport, err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return mutationDoneMsg{op: opExport, status: fmt.Sprintf("Copied %d task(s) as CSV", len(snap.Tasks))}
	}
}

func nextSortOrder(o model.SortOrder) model.SortOrder {
	switch o {
	case model.SortDueDate:
		return model.SortPriority
	case model.SortPriority:
		return model.SortCreationDate
	default:
		return model.SortDueDate
	}
}

func sortLabel(o model.SortOrder) string {
	switch o {
	case model.SortPriority:
		return "priority"
	case model.SortCreationDate:
		return "creation date"
	default:
		return "due date"
	}
}

func (m appModel) leftWidth() int {
	w := m.width / 3
	return max(24, min(w, 40))
}

func (m appModel) modalWidth() int {
	return max(40, min(m.width-8, 72))
}

const detailHeight = 8

func (m *appModel) layout() {
	bodyH := max(m.height-4, 6)
	lw := m.leftWidth()
	rw := max(m.width-lw-4, 20)
	m.projects.SetSize(lw-4, bodyH-2)
	m.tasks.SetSize(rw-4, max(bodyH-2-detailHeight, 4))
	m.search.Width = rw - 6
	if m.mode == modeForm {
		m.form.setWidth(m.modalWidth() - 6)
	}
}

func (m appModel) header() string {
	title := styleTitle().Render("Pro Task Manager")
	parts := []string{"sort: " + sortLabel(m.snap.SortOrder), "theme: " + string(m.theme)}
	if m.snap.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.snap.SearchTerm))
	}
	return title + "  " + styleMuted().Render(strings.Join(parts, " · "))
}

func (m appModel) detail(width int) string {
	t, ok := m.selectedTask()
	if !ok {
		return ""
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(fitWidth(t.Task.Text, width)),
		styleMuted().Render(fitWidth(fmt.Sprintf("%s · %s · due %s · %s", t.ProjectName, t.Task.Priority, t.Task.DueDate, t.Countdown.Text), width)),
	}
	if notes := renderNotes(t.Task.Notes, width, m.theme); notes != "" {
		lines = append(lines, notes)
	}
	out := strings.Split(strings.Join(lines, "\n"), "\n")
	if len(out) > detailHeight {
		out = append(out[:detailHeight-1], styleMuted().Render("…"))
	}
	return strings.Join(out, "\n")
}

func (m appModel) footer() string {
	if m.mode == modeSearch {
		return m.search.View()
	}
	if m.status != "" {
		if m.statusErr {
			return styleError().Render(m.status)
		}
		return styleOK().Render(m.status)
	}
	var parts []string
	bindings := m.keys.normalHelp()
	if !m.showHelp {
		bindings = bindings[:4]
	}
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	if !m.showHelp {
		parts = append(parts, "?: more")
	}
	return styleMuted().Render(strings.Join(parts, "   "))
}

func (m appModel) newProjectView() string {
	lines := []string{styleTitle().Render("New Project"), "", m.newProject.View()}
	if m.projectErr != "" {
		lines = append(lines, "", styleError().Render(m.projectErr))
	}
	lines = append(lines, "", styleMuted().Render("enter: create   esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m appModel) View() string {
	if m.width == 0 || m.snap == nil {
		return "loading…"
	}
	lw := m.leftWidth()
	rw := max(m.width-lw-4, 20)

	left := stylePane(m.pane == paneProjects).Width(lw - 2).Render(m.projects.View())

	var right string
	if len(m.tasks.Items()) == 0 {
		right = styleTitle().Render(m.tasks.Title) + "\n\n" + styleMuted().Render(view.EmptyMessage)
	} else {
		right = m.tasks.View()
	}
	if d := m.detail(rw - 4); d != "" {
		right += "\n" + styleMuted().Render(strings.Repeat("─", rw-4)) + "\n" + d
	}
	right = stylePane(m.pane == paneTasks).Width(rw - 2).Render(right)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	screen := strings.Join([]string{m.header(), body, m.footer()}, "\n")

	var modal string
	switch m.mode {
	case modeForm:
		modal = stylePane(true).Width(m.modalWidth()).Render(m.form.view())
	case modeNewProject:
		modal = stylePane(true).Width(m.modalWidth()).Render(m.newProjectView())
	case modeConfirm:
		modal = renderConfirmModal(m.modalWidth(), m.confirm, m.confirmFocus)
	}
	if modal == "" {
		return screen
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

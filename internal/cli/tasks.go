package cli

import (
	"strings"

	"protask/internal/model"
	"protask/internal/state"
	"protask/internal/view"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task commands",
	}

	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksToggleCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksSortCmd(app))

	return cmd
}

type taskFlags struct {
	project  string
	text     string
	priority string
	due      string
	notes    string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "Project name (created when it does not exist; empty for none)")
	cmd.Flags().StringVar(&f.text, "text", "", "Task text")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Priority (low|medium|high)")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes (markdown; backticks for code)")
}

// apply overlays the flags the user actually set on a prefilled form.
func (f *taskFlags) apply(cmd *cobra.Command, form view.TaskForm) state.TaskInput {
	in := state.TaskInput{
		ProjectName: form.ProjectName,
		Text:        form.Text,
		Priority:    form.Priority,
		DueDate:     form.DueDate,
		Notes:       form.Notes,
	}
	if cmd.Flags().Changed("project") {
		in.ProjectName = f.project
	}
	if cmd.Flags().Changed("text") {
		in.Text = f.text
	}
	if cmd.Flags().Changed("priority") {
		in.Priority = f.priority
	}
	if cmd.Flags().Changed("due") {
		in.DueDate = f.due
	}
	if cmd.Flags().Changed("notes") {
		in.Notes = f.notes
	}
	return in
}

func newTasksAddCmd(app *App) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task (defaults: selected project, medium priority, due today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			form := view.EditForm(st.Snapshot(), "", st.Now())
			t, err := st.UpsertTask(cmd.Context(), "", f.apply(cmd, form))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			snap := st.Snapshot()
			if _, ok := snap.FindTask(id); !ok {
				return writeErr(cmd, &state.NotFoundError{Kind: "task", ID: id})
			}
			form := view.EditForm(snap, id, st.Now())
			t, err := st.UpsertTask(cmd.Context(), id, f.apply(cmd, form))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	f.register(cmd)
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var projectArg string
	var search string
	var sortArg string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for the selected project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := st.Snapshot()
			f := view.FiltersOf(snap)
			if cmd.Flags().Changed("project") {
				f.ProjectID = resolveProjectID(snap, projectArg)
				if f.ProjectID != model.AllProjectsID {
					if _, ok := snap.FindProject(f.ProjectID); !ok {
						return writeErr(cmd, &state.NotFoundError{Kind: "project", ID: projectArg})
					}
				}
			}
			f.SearchTerm = search
			if cmd.Flags().Changed("sort") {
				order, ok := model.ParseSortOrder(sortArg)
				if !ok {
					return writeErr(cmd, &state.ValidationError{Field: "sort order", Reason: "expected due-date|priority|creation-date, got " + sortArg})
				}
				f.SortOrder = order
			}
			return writeOut(cmd, app, map[string]any{"data": view.TaskList(snap, f, st.Now())})
		},
	}

	cmd.Flags().StringVar(&projectArg, "project", "", "Project id, name, or all (default: selected project)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive match on text or notes")
	cmd.Flags().StringVar(&sortArg, "sort", "", "Sort order (due-date|priority|creation-date; default: saved order)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its countdown and rendered notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			snap := st.Snapshot()
			rows := view.TaskList(snap, view.Filters{ProjectID: model.AllProjectsID}, st.Now()).Rows
			for _, r := range rows {
				if r.Task.ID == id {
					return writeOut(cmd, app, map[string]any{"data": r})
				}
			}
			return writeErr(cmd, &state.NotFoundError{Kind: "task", ID: id})
		},
	}
}

func newTasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Flip a task between open and complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := st.ToggleComplete(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := st.RequestDeleteTask(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				return writeErr(cmd, confirmationRequiredError{c: c})
			}
			if err := st.Confirm(cmd.Context(), c); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": c.TargetID}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newTasksSortCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "sort <due-date|priority|creation-date>",
		Short:     "Set the saved sort order",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.SortDueDate), string(model.SortPriority), string(model.SortCreationDate)},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.SetSortOrder(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"sortOrder": st.Snapshot().SortOrder}})
		},
	}
}

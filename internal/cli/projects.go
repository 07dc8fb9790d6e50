package cli

import (
	"strings"

	"protask/internal/model"
	"protask/internal/view"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Project commands",
	}
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsSelectCmd(app))
	return cmd
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project and select it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := st.CreateProject(cmd.Context(), name)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects with task counts and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": view.ProjectList(st.Snapshot())})
		},
	}
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <project-id|name>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := resolveProjectID(st.Snapshot(), args[0])
			c, err := st.RequestDeleteProject(id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				return writeErr(cmd, confirmationRequiredError{c: c})
			}
			res, err := st.DeleteProject(cmd.Context(), c.TargetID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"project":      res.Project,
				"tasksDeleted": res.TasksDeleted,
			}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newProjectsSelectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "select <project-id|name|all>",
		Short: "Set the project the task list is filtered by",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := resolveProjectID(st.Snapshot(), args[0])
			if err := st.SetSelectedProject(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			snap := st.Snapshot()
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"selectedProjectId": snap.SelectedProjectID,
				"title":             view.Title(snap),
			}})
		},
	}
}

// resolveProjectID accepts a project id, a project name, or "all".
func resolveProjectID(snap *model.Snapshot, arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.EqualFold(arg, model.AllProjectsID) {
		return model.AllProjectsID
	}
	if _, ok := snap.FindProject(arg); ok {
		return arg
	}
	if p, ok := snap.FindProjectByName(arg); ok {
		return p.ID
	}
	return arg
}

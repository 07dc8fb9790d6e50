// Package tui is the interactive terminal front end. It owns no state of its own:
// every action goes through the state store and every screen is derived with view.
package tui

import (
	"context"
	"log/slog"

	"protask/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Logger *slog.Logger
	// ExportDir receives pro_task_manager_export.csv; defaults to the working directory.
	ExportDir string
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

func Run(ctx context.Context, st *state.Store, opts Options) error {
	applyColorProfilePreference()
	m := newAppModel(ctx, st, opts)
	defer m.unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

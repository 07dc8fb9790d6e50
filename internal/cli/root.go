package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"protask/internal/config"
	"protask/internal/format"
	"protask/internal/state"
	"protask/internal/store"
	"protask/internal/tui"

	"github.com/spf13/cobra"
)

// LogEnv names the file the TUI appends its log to.
const LogEnv = "PROTASK_LOG"

type App struct {
	ConfigFile string
	Verbose    bool
	Ephemeral  bool

	cfg    config.Config
	logger *slog.Logger
	st     *state.Store

	// Now and NewID are test hooks; nil means the real clock and random ids.
	Now   func() time.Time
	NewID state.IDGenerator
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "protask",
		Short:         "Pro Task Manager: projects, tasks and due dates in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  protask

  # Scriptable commands
  protask tasks add --text "Ship it" --project Work --priority high --due 2099-01-01
  protask tasks list --sort priority

  # Direct task lookup (shortcut for: protask tasks show <task-id>)
  protask task-abcd1234
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{ConfigFile: app.ConfigFile, Flags: cmd.Flags()})
		if err != nil {
			return writeErr(cmd, err)
		}
		if app.Ephemeral {
			cfg.Backend = string(store.BackendMemory)
		}
		app.cfg = cfg
		app.logger = newLogger(cmd.ErrOrStderr(), app.Verbose)
		app.logger.Debug("config resolved", "backend", cfg.Backend, "data_dir", cfg.DataDir, "config_file", cfg.ConfigFile)
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", "", "Config file (default: $PROTASK_CONFIG_DIR/config.yaml or ~/.protask/config.yaml)")
	pf.String("dir", "", "Data directory (default ~/.protask)")
	pf.String("backend", "", "Storage backend (sqlite|file|memory)")
	pf.String("key", "", "Storage key the snapshot is saved under")
	pf.String("format", "", "Output format (json|edn|yaml)")
	pf.Bool("pretty", false, "Pretty-print output")
	pf.BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging on stderr")
	pf.BoolVar(&app.Ephemeral, "ephemeral", false, "Keep state in memory only (nothing is written)")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadStore opens the configured backend once per invocation.
func loadStore(ctx context.Context, app *App) (*state.Store, error) {
	if app.st != nil {
		return app.st, nil
	}
	backend, err := store.OpenBackend(app.cfg.Backend, app.cfg.DataDir)
	if err != nil {
		return nil, &config.Error{Key: config.KeyBackend, Reason: err.Error(), Err: err}
	}
	p := store.Persister{Backend: backend, Key: app.cfg.Key}

	opts := []state.Option{state.WithLogger(app.logger)}
	if app.Now != nil {
		opts = append(opts, state.WithClock(app.Now))
	}
	if app.NewID != nil {
		opts = append(opts, state.WithIDGenerator(app.NewID))
	}
	st, err := state.Open(ctx, p, opts...)
	if err != nil && st == nil {
		return nil, err
	}
	if err != nil {
		// The seed could not be written; keep going with the in-memory copy.
		app.logger.Warn("first-run state not saved", "error", err)
	}
	app.st = st
	return st, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	st, err := loadStore(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	logger, closeLog, err := tuiLogger(os.Getenv(LogEnv))
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeLog()
	return tui.Run(cmd.Context(), st, tui.Options{Logger: logger, ExportDir: "."})
}

// tuiLogger writes to path when set and discards otherwise; the TUI owns the terminal.
func tuiLogger(path string) (*slog.Logger, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", LogEnv, err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.cfg.Pretty)
}

// writeErr prints err once and marks it so main does not print it again.
func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err: err}
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive TUI (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"protask/internal/export"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var writeClipboard = clipboard.WriteAll

func newExportCmd(app *App) *cobra.Command {
	var out string
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as CSV (stdout by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" && toClipboard {
				return writeErr(cmd, errors.New("--out and --clipboard are mutually exclusive"))
			}
			st, err := loadStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := st.Snapshot()
			b := export.Bytes(snap, st.Now())

			switch {
			case toClipboard:
				if err := writeClipboard(string(b)); err != nil {
					return writeErr(cmd, fmt.Errorf("copy to clipboard: %w", err))
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"destination": "clipboard",
					"tasks":       len(snap.Tasks),
					"bytes":       len(b),
				}})
			case out != "":
				path := exportPath(out)
				if err := os.WriteFile(path, b, 0o644); err != nil {
					return writeErr(cmd, fmt.Errorf("write export: %w", err))
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"destination": path,
					"tasks":       len(snap.Tasks),
					"bytes":       len(b),
				}})
			default:
				w := cmd.OutOrStdout()
				if _, err := w.Write(b); err != nil {
					return writeErr(cmd, err)
				}
				_, err := fmt.Fprintln(w)
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file, or to "+export.Filename+" inside this directory")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "Copy the CSV to the system clipboard")
	return cmd
}

func exportPath(out string) string {
	out = strings.TrimSpace(out)
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, export.Filename)
	}
	return out
}

package tui

import (
	"fmt"
	"strings"

	"protask/internal/state"

	"github.com/charmbracelet/lipgloss"
)

type confirmFocus int

const (
	confirmFocusCancel confirmFocus = iota
	confirmFocusConfirm
)

func renderConfirmModal(width int, c state.Confirmation, focus confirmFocus) string {
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorAccentFg).
		Background(colorDanger).
		Bold(true)

	confirm := btnBase.Render("Delete")
	cancel := btnBase.Render("Cancel")
	if focus == confirmFocusConfirm {
		confirm = btnActive.Render("Delete")
	} else {
		cancel = btnActive.Background(colorAccent).Render("Cancel")
	}

	bodyW := width - 6
	if bodyW < 20 {
		bodyW = 20
	}
	body := lipgloss.NewStyle().Width(bodyW).Render(c.Prompt)
	if c.Action == state.ConfirmDeleteProject && c.Cascade > 0 {
		body += "\n" + styleMuted().Width(bodyW).Render(fmt.Sprintf("%d task(s) will be removed.", c.Cascade))
	}

	content := strings.Join([]string{
		styleError().Render("Confirm"),
		"",
		body,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel),
		"",
		styleMuted().Render("y: delete   n/esc: cancel   tab: focus   enter: select"),
	}, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDanger).
		Padding(1, 2).
		Render(content)
}

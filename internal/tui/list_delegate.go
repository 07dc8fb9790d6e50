package tui

import (
	"fmt"
	"io"
	"math"
	"strings"

	"protask/internal/model"
	"protask/internal/view"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type projectItem struct{ row view.ProjectRow }

func (p projectItem) FilterValue() string { return p.row.Name }

type taskItem struct{ row view.TaskRow }

func (t taskItem) FilterValue() string { return t.row.Task.Text }

// progressBar renders ratio (0..1) as a fixed-width bar.
func progressBar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// fitWidth pads or cuts s to exactly w terminal cells.
func fitWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > w {
		// Wide runes can leave the cut one cell short.
		s = xansi.Truncate(s, w, "…")
	}
	if sw := xansi.StringWidth(s); sw < w {
		s += strings.Repeat(" ", w-sw)
	}
	return s
}

type projectDelegate struct{}

func (d projectDelegate) Height() int                             { return 2 }
func (d projectDelegate) Spacing() int                            { return 0 }
func (d projectDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(projectItem)
	if !ok {
		return
	}
	width := m.Width()
	if width < 4 {
		return
	}
	fmt.Fprint(w, strings.Join(projectLines(it.row, width, index == m.Index()), "\n"))
}

func projectLines(row view.ProjectRow, width int, cursor bool) []string {
	marker := "  "
	if row.Active {
		marker = "▸ "
	}
	name := marker + row.Name
	var meta string
	if row.Synthetic {
		meta = fmt.Sprintf("  %d tasks", row.TaskCount)
	} else {
		barW := width - 12
		if barW > 20 {
			barW = 20
		}
		if barW < 4 {
			barW = 4
		}
		meta = fmt.Sprintf("  %s %3d%%", progressBar(row.Progress, barW), int(math.Round(row.Progress*100)))
	}

	nameStyle := lipgloss.NewStyle()
	if row.Active {
		nameStyle = nameStyle.Bold(true).Foreground(colorAccent)
	}
	metaStyle := styleMuted()
	if cursor {
		nameStyle = nameStyle.Background(colorSelectedBg).Foreground(colorSelectedFg)
		metaStyle = metaStyle.Background(colorSelectedBg)
	}
	return []string{
		nameStyle.Render(fitWidth(name, width)),
		metaStyle.Render(fitWidth(meta, width)),
	}
}

type taskDelegate struct{}

func (d taskDelegate) Height() int                             { return 2 }
func (d taskDelegate) Spacing() int                            { return 1 }
func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	width := m.Width()
	if width < 8 {
		return
	}
	fmt.Fprint(w, strings.Join(taskLines(it.row, width, index == m.Index()), "\n"))
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "HIGH"
	case model.PriorityMedium:
		return "MED"
	case model.PriorityLow:
		return "LOW"
	default:
		return strings.ToUpper(string(p))
	}
}

func taskLines(row view.TaskRow, width int, cursor bool) []string {
	t := row.Task
	prio := priorityLabel(t.Priority)
	head := checkbox(t.IsComplete) + " " + t.Text
	headW := width - len(prio) - 1
	if headW < 1 {
		headW = 1
	}

	textStyle := lipgloss.NewStyle()
	if t.IsComplete {
		textStyle = textStyle.Strikethrough(true).Foreground(colorMuted)
	}
	countdownStyle := styleMuted()
	switch {
	case t.IsComplete:
		countdownStyle = styleOK()
	case row.Countdown.Overdue:
		countdownStyle = styleError()
	}
	prioStyle := stylePriority(t.Priority)
	if cursor {
		textStyle = textStyle.Background(colorSelectedBg)
		prioStyle = prioStyle.Background(colorSelectedBg)
		countdownStyle = countdownStyle.Background(colorSelectedBg)
	}

	due := string(t.DueDate)
	if due == "" {
		due = "no date"
	}
	meta := fmt.Sprintf("    %s · due %s · %s", row.ProjectName, due, row.Countdown.Text)

	first := textStyle.Render(fitWidth(head, headW)) + textStyle.Render(" ") + prioStyle.Render(prio)
	return []string{first, countdownStyle.Render(fitWidth(meta, width))}
}

func newPaneList(d list.ItemDelegate, title string) list.Model {
	l := list.New(nil, d, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = styleTitle()
	l.Styles.NoItems = styleMuted()
	return l
}

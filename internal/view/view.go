// Package view derives display data from a snapshot. Every function is pure: it reads
// the snapshot and returns new values without modifying it.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"protask/internal/model"
)

const (
	AllTasksName = "All Tasks"
	NoProject    = "N/A"
	EmptyMessage = "No tasks found. Time to create one!"
)

// Filters is the transient UI state a task list is derived with.
type Filters struct {
	ProjectID  string          `json:"projectId"`
	SearchTerm string          `json:"searchTerm"`
	SortOrder  model.SortOrder `json:"sortOrder"`
}

func FiltersOf(snap *model.Snapshot) Filters {
	if snap == nil {
		return Filters{ProjectID: model.AllProjectsID, SortOrder: model.SortDueDate}
	}
	return Filters{
		ProjectID:  snap.SelectedProjectID,
		SearchTerm: snap.SearchTerm,
		SortOrder:  snap.SortOrder,
	}
}

type ProjectRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TaskCount int     `json:"taskCount"`
	Completed int     `json:"completed"`
	Progress  float64 `json:"progress"`
	Active    bool    `json:"active"`
	// Synthetic marks the "All Tasks" row, which has no progress and cannot be deleted.
	Synthetic bool `json:"synthetic,omitempty"`
}

// ProjectList returns the synthetic "All Tasks" row followed by every project.
func ProjectList(snap *model.Snapshot) []ProjectRow {
	if snap == nil {
		return []ProjectRow{{ID: model.AllProjectsID, Name: AllTasksName, Active: true, Synthetic: true}}
	}
	rows := make([]ProjectRow, 0, len(snap.Projects)+1)
	rows = append(rows, ProjectRow{
		ID:        model.AllProjectsID,
		Name:      AllTasksName,
		TaskCount: len(snap.Tasks),
		Active:    snap.SelectedProjectID == model.AllProjectsID,
		Synthetic: true,
	})
	for _, p := range snap.Projects {
		total, done := model.CountTasks(snap.Tasks, p.ID)
		rows = append(rows, ProjectRow{
			ID:        p.ID,
			Name:      p.Name,
			TaskCount: total,
			Completed: done,
			Progress:  model.Progress(snap.Tasks, p.ID),
			Active:    snap.SelectedProjectID == p.ID,
		})
	}
	return rows
}

// Title is the heading for the task list: the selected project's name or "All Tasks".
func Title(snap *model.Snapshot) string {
	if snap == nil {
		return AllTasksName
	}
	return titleFor(snap, snap.SelectedProjectID)
}

func titleFor(snap *model.Snapshot, projectID string) string {
	if snap == nil || projectID == "" || projectID == model.AllProjectsID {
		return AllTasksName
	}
	if name, ok := snap.ProjectName(projectID); ok {
		return name
	}
	return AllTasksName
}

type TaskRow struct {
	Task        model.Task `json:"task"`
	ProjectName string     `json:"projectName"`
	Countdown   Countdown  `json:"countdown"`
	NotesHTML   string     `json:"notesHtml,omitempty"`
}

type TaskListView struct {
	Title        string    `json:"title"`
	Filters      Filters   `json:"filters"`
	Rows         []TaskRow `json:"rows"`
	Empty        bool      `json:"empty"`
	EmptyMessage string    `json:"emptyMessage,omitempty"`
}

// TaskList filters by project, then by search term, then sorts.
func TaskList(snap *model.Snapshot, f Filters, now time.Time) TaskListView {
	out := TaskListView{Title: titleFor(snap, f.ProjectID), Filters: f, Rows: []TaskRow{}}
	var tasks []model.Task
	if snap != nil {
		tasks = SortTasks(FilterTasks(snap.Tasks, f), f.SortOrder)
	}
	for _, t := range tasks {
		name, ok := snap.ProjectName(t.ProjectID)
		if !ok {
			name = NoProject
		}
		out.Rows = append(out.Rows, TaskRow{
			Task:        t,
			ProjectName: name,
			Countdown:   CountdownFor(t, now),
			NotesHTML:   NotesHTML(t.Notes),
		})
	}
	if len(out.Rows) == 0 {
		out.Empty = true
		out.EmptyMessage = EmptyMessage
	}
	return out
}

// FilterTasks returns a new slice; the input is never reordered.
func FilterTasks(tasks []model.Task, f Filters) []model.Task {
	term := strings.ToLower(f.SearchTerm)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.ProjectID != "" && f.ProjectID != model.AllProjectsID && t.ProjectID != f.ProjectID {
			continue
		}
		if term != "" && !MatchesSearch(t, term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MatchesSearch is a case-insensitive substring match against text or notes.
func MatchesSearch(t model.Task, term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Text), term) ||
		strings.Contains(strings.ToLower(t.Notes), term)
}

// SortTasks returns a stably sorted copy. Due-date order puts unparseable dates last.
func SortTasks(tasks []model.Task, order model.SortOrder) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	switch order {
	case model.SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		})
	case model.SortCreationDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].DueDate.In(time.UTC)
			b, bok := out[j].DueDate.In(time.UTC)
			if aok != bok {
				return aok
			}
			if !aok {
				return false
			}
			return a.Before(b)
		})
	}
	return out
}

type Countdown struct {
	Text    string `json:"text"`
	Overdue bool   `json:"overdue"`
	// Known is false when the due date cannot be parsed.
	Known bool `json:"known"`
}

// CountdownFor measures from now to the end of the task's due day.
func CountdownFor(t model.Task, now time.Time) Countdown {
	if t.IsComplete {
		return Countdown{Text: "Completed", Known: true}
	}
	if strings.TrimSpace(string(t.DueDate)) == "" {
		return Countdown{Text: "No due date"}
	}
	end, ok := t.DueDate.EndOfDay(now.Location())
	if !ok {
		return Countdown{Text: "Invalid due date"}
	}
	// Whole seconds via Unix time; time.Duration saturates for far-off dates.
	secs := end.Unix() - now.Unix()
	if end.Before(now) {
		return Countdown{Text: "Overdue by " + formatSeconds(-secs), Overdue: true, Known: true}
	}
	return Countdown{Text: formatSeconds(secs) + " remaining", Known: true}
}

// FormatDistance renders |d| as "{days}d {hours}h", or "{hours}h" under one day.
func FormatDistance(d time.Duration) string {
	return formatSeconds(int64(d / time.Second))
}

func formatSeconds(secs int64) string {
	if secs < 0 {
		secs = -secs
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}

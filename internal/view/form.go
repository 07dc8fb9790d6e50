package view

import (
	"time"

	"protask/internal/model"
)

// TaskForm is the add/edit context handed to a presentation layer.
type TaskForm struct {
	Title       string   `json:"title"`
	TaskID      string   `json:"taskId,omitempty"`
	ProjectName string   `json:"projectName"`
	Text        string   `json:"text"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Notes       string   `json:"notes"`
	Suggestions []string `json:"suggestions"`
}

// EditForm prefills the form for taskID, or for a new task when taskID is empty or
// unknown. New tasks default to today's date and the selected project.
func EditForm(snap *model.Snapshot, taskID string, now time.Time) TaskForm {
	form := TaskForm{Suggestions: []string{}}
	if snap == nil {
		snap = &model.Snapshot{}
	}
	for _, p := range snap.Projects {
		form.Suggestions = append(form.Suggestions, p.Name)
	}

	if t, ok := snap.FindTask(taskID); ok && taskID != "" {
		form.Title = "Edit Task"
		form.TaskID = t.ID
		form.Text = t.Text
		form.Priority = string(t.Priority)
		form.DueDate = string(t.DueDate)
		form.Notes = t.Notes
		form.ProjectName, _ = snap.ProjectName(t.ProjectID)
		return form
	}

	form.Title = "Add New Task"
	form.Priority = string(model.PriorityMedium)
	form.DueDate = string(model.DateOf(now))
	if snap.SelectedProjectID != model.AllProjectsID {
		form.ProjectName, _ = snap.ProjectName(snap.SelectedProjectID)
	}
	return form
}

package state

import (
	"context"
	"fmt"
	"strings"

	"protask/internal/model"
)

type ConfirmAction string

const (
	ConfirmDeleteProject ConfirmAction = "delete-project"
	ConfirmDeleteTask    ConfirmAction = "delete-task"
)

// Confirmation describes a destructive intent awaiting the user's answer. Requesting one
// never changes state; Confirm executes it.
type Confirmation struct {
	Action   ConfirmAction `json:"action"`
	TargetID string        `json:"targetId"`
	Prompt   string        `json:"prompt"`
	// Cascade is the number of tasks that go with a deleted project.
	Cascade int `json:"cascade,omitempty"`
}

func (s *Store) RequestDeleteProject(id string) (Confirmation, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.snap.FindProject(id)
	if !ok {
		return Confirmation{}, &NotFoundError{Kind: "project", ID: id}
	}
	total, _ := model.CountTasks(s.snap.Tasks, id)
	return Confirmation{
		Action:   ConfirmDeleteProject,
		TargetID: id,
		Prompt:   fmt.Sprintf("Are you sure you want to delete the %q project? This will also delete all of its tasks permanently.", p.Name),
		Cascade:  total,
	}, nil
}

func (s *Store) RequestDeleteTask(id string) (Confirmation, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findTask(id); !ok {
		return Confirmation{}, &NotFoundError{Kind: "task", ID: id}
	}
	return Confirmation{
		Action:   ConfirmDeleteTask,
		TargetID: id,
		Prompt:   "Are you sure you want to delete this task?",
	}, nil
}

// Confirm runs a previously requested destructive intent.
func (s *Store) Confirm(ctx context.Context, c Confirmation) error {
	switch c.Action {
	case ConfirmDeleteProject:
		_, err := s.DeleteProject(ctx, c.TargetID)
		return err
	case ConfirmDeleteTask:
		return s.DeleteTask(ctx, c.TargetID)
	default:
		return &ValidationError{Field: "confirmation", Reason: "unknown action " + string(c.Action)}
	}
}

package state

import (
	"context"
	"strings"

	"protask/internal/model"
)

// TaskInput carries the editable task fields as entered by the user.
// ProjectName is free text, matched case-insensitively against existing projects.
type TaskInput struct {
	ProjectName string
	Text        string
	Priority    string
	DueDate     string
	Notes       string
}

// DeleteProjectResult reports what a project deletion removed.
type DeleteProjectResult struct {
	Project      model.Project
	TasksDeleted int
}

func (s *Store) CreateProject(ctx context.Context, name string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, &ValidationError{Field: "project name", Reason: "must not be empty"}
	}

	s.mu.Lock()
	if existing, ok := s.snap.FindProjectByName(name); ok {
		s.mu.Unlock()
		return model.Project{}, &ValidationError{Field: "project name", Reason: "project " + existing.Name + " already exists"}
	}
	p := model.Project{ID: s.nextID("proj"), Name: name}
	s.snap.Projects = append(s.snap.Projects, p)
	s.snap.SelectedProjectID = p.ID
	err := s.save(ctx, OpCreateProject, p.ID)
	s.mu.Unlock()

	s.logger.Debug("project created", "id", p.ID, "name", p.Name)
	s.notify(Change{Op: OpCreateProject, ID: p.ID})
	return p, err
}

// DeleteProject removes the project and every task that references it. Confirmation is
// the caller's job (see RequestDeleteProject).
func (s *Store) DeleteProject(ctx context.Context, id string) (DeleteProjectResult, error) {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	p, ok := s.snap.FindProject(id)
	if !ok {
		s.mu.Unlock()
		return DeleteProjectResult{}, &NotFoundError{Kind: "project", ID: id}
	}
	res := DeleteProjectResult{Project: *p}

	projects := make([]model.Project, 0, len(s.snap.Projects))
	for _, x := range s.snap.Projects {
		if x.ID != id {
			projects = append(projects, x)
		}
	}
	tasks := make([]model.Task, 0, len(s.snap.Tasks))
	for _, t := range s.snap.Tasks {
		if t.ProjectID == id {
			res.TasksDeleted++
			continue
		}
		tasks = append(tasks, t)
	}
	s.snap.Projects = projects
	s.snap.Tasks = tasks
	if s.snap.SelectedProjectID == id {
		s.snap.SelectedProjectID = model.AllProjectsID
	}
	err := s.save(ctx, OpDeleteProject, id)
	s.mu.Unlock()

	s.logger.Debug("project deleted", "id", id, "tasks", res.TasksDeleted)
	s.notify(Change{Op: OpDeleteProject, ID: id})
	return res, err
}

// UpsertTask updates taskID when it exists and creates a new task otherwise.
// An unknown non-empty project name creates that project on the fly.
func (s *Store) UpsertTask(ctx context.Context, taskID string, in TaskInput) (model.Task, error) {
	taskID = strings.TrimSpace(taskID)
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return model.Task{}, &ValidationError{Field: "task text", Reason: "must not be empty"}
	}
	prio, ok := model.ParsePriority(in.Priority)
	if !ok {
		return model.Task{}, &ValidationError{Field: "priority", Reason: "expected low|medium|high, got " + strings.TrimSpace(in.Priority)}
	}
	projectName := strings.TrimSpace(in.ProjectName)

	s.mu.Lock()
	projectID := ""
	if projectName != "" {
		if p, ok := s.snap.FindProjectByName(projectName); ok {
			projectID = p.ID
		} else {
			p := model.Project{ID: s.nextID("proj"), Name: projectName}
			s.snap.Projects = append(s.snap.Projects, p)
			projectID = p.ID
			s.logger.Debug("project created from task", "id", p.ID, "name", p.Name)
		}
	}

	var out model.Task
	if t, ok := s.findTask(taskID); ok {
		t.ProjectID = projectID
		t.Text = text
		t.Priority = prio
		t.DueDate = model.Date(strings.TrimSpace(in.DueDate))
		t.Notes = in.Notes
		out = *t
	} else {
		out = model.Task{
			ID:         s.nextID("task"),
			ProjectID:  projectID,
			Text:       text,
			Priority:   prio,
			DueDate:    model.Date(strings.TrimSpace(in.DueDate)),
			Notes:      in.Notes,
			IsComplete: false,
			CreatedAt:  s.now().UTC(),
		}
		s.snap.Tasks = append(s.snap.Tasks, out)
	}
	err := s.save(ctx, OpUpsertTask, out.ID)
	s.mu.Unlock()

	s.notify(Change{Op: OpUpsertTask, ID: out.ID})
	return out, err
}

func (s *Store) findTask(id string) (*model.Task, bool) {
	if id == "" {
		return nil, false
	}
	return s.snap.FindTask(id)
}

// ToggleComplete flips IsComplete. A missing task is a *NotFoundError and nothing is written.
func (s *Store) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	t, ok := s.findTask(id)
	if !ok {
		s.mu.Unlock()
		return model.Task{}, &NotFoundError{Kind: "task", ID: id}
	}
	t.IsComplete = !t.IsComplete
	out := *t
	err := s.save(ctx, OpToggleComplete, id)
	s.mu.Unlock()

	s.notify(Change{Op: OpToggleComplete, ID: id})
	return out, err
}

// DeleteTask removes the task. A missing task is a *NotFoundError and nothing is written.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	if _, ok := s.findTask(id); !ok {
		s.mu.Unlock()
		return &NotFoundError{Kind: "task", ID: id}
	}
	tasks := make([]model.Task, 0, len(s.snap.Tasks)-1)
	for _, t := range s.snap.Tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	s.snap.Tasks = tasks
	err := s.save(ctx, OpDeleteTask, id)
	s.mu.Unlock()

	s.notify(Change{Op: OpDeleteTask, ID: id})
	return err
}

// SetSelectedProject accepts model.AllProjectsID or an existing project id.
func (s *Store) SetSelectedProject(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		id = model.AllProjectsID
	}

	s.mu.Lock()
	if id != model.AllProjectsID {
		if _, ok := s.snap.FindProject(id); !ok {
			s.mu.Unlock()
			return &NotFoundError{Kind: "project", ID: id}
		}
	}
	s.snap.SelectedProjectID = id
	err := s.save(ctx, OpSelectProject, id)
	s.mu.Unlock()

	s.notify(Change{Op: OpSelectProject, ID: id})
	return err
}

// SetSearchTerm only changes session state; nothing is written.
func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	s.snap.SearchTerm = term
	s.mu.Unlock()

	s.notify(Change{Op: OpSetSearchTerm})
}

func (s *Store) SetSortOrder(ctx context.Context, order string) error {
	o, ok := model.ParseSortOrder(order)
	if !ok {
		return &ValidationError{Field: "sort order", Reason: "expected due-date|priority|creation-date, got " + order}
	}

	s.mu.Lock()
	s.snap.SortOrder = o
	err := s.save(ctx, OpSetSortOrder, string(o))
	s.mu.Unlock()

	s.notify(Change{Op: OpSetSortOrder, ID: string(o)})
	return err
}

func (s *Store) ToggleTheme(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	s.snap.Theme = s.snap.Theme.Toggled()
	theme := s.snap.Theme
	err := s.save(ctx, OpToggleTheme, string(theme))
	s.mu.Unlock()

	s.notify(Change{Op: OpToggleTheme, ID: string(theme)})
	return theme, err
}

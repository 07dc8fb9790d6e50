package model

import (
	"strings"
	"time"
)

// AllProjectsID is the selection sentinel meaning "no project filter".
const AllProjectsID = "all"

// SnapshotVersion is the current persisted snapshot format.
const SnapshotVersion = 1

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting: high 3, medium 2, low 1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

// ParsePriority accepts low|medium|high in any case. Empty input yields medium.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium, true
	}
	p := Priority(s)
	return p, p.Valid()
}

type SortOrder string

const (
	SortDueDate      SortOrder = "due-date"
	SortPriority     SortOrder = "priority"
	SortCreationDate SortOrder = "creation-date"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortDueDate, "":
		return SortDueDate, true
	case SortPriority:
		return SortPriority, true
	case SortCreationDate:
		return SortCreationDate, true
	default:
		return "", false
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggled returns the other theme. Anything that is not dark toggles to dark.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Text       string    `json:"text"`
	Priority   Priority  `json:"priority"`
	DueDate    Date      `json:"dueDate"`
	Notes      string    `json:"notes"`
	IsComplete bool      `json:"isComplete"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Snapshot is the full application state. The persisted blob is this struct as JSON,
// except SearchTerm which is session-only.
type Snapshot struct {
	Version           int       `json:"version"`
	Projects          []Project `json:"projects"`
	Tasks             []Task    `json:"tasks"`
	SelectedProjectID string    `json:"selectedProjectId"`
	SearchTerm        string    `json:"searchTerm,omitempty"`
	SortOrder         SortOrder `json:"sortOrder"`
	Theme             Theme     `json:"theme"`
}

// Clone returns a deep copy safe to hand to view code.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Projects = make([]Project, len(s.Projects))
	copy(out.Projects, s.Projects)
	out.Tasks = make([]Task, len(s.Tasks))
	copy(out.Tasks, s.Tasks)
	return &out
}

func (s *Snapshot) FindProject(id string) (*Project, bool) {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i], true
		}
	}
	return nil, false
}

// FindProjectByName matches case-insensitively after trimming.
func (s *Snapshot) FindProjectByName(name string) (*Project, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	for i := range s.Projects {
		if strings.ToLower(strings.TrimSpace(s.Projects[i].Name)) == name {
			return &s.Projects[i], true
		}
	}
	return nil, false
}

func (s *Snapshot) FindTask(id string) (*Task, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

// HasID reports whether id is used by any project or task.
func (s *Snapshot) HasID(id string) bool {
	if _, ok := s.FindProject(id); ok {
		return true
	}
	_, ok := s.FindTask(id)
	return ok
}

// ProjectName returns the name for id, or "" when the reference dangles.
func (s *Snapshot) ProjectName(id string) (string, bool) {
	if p, ok := s.FindProject(id); ok {
		return p.Name, true
	}
	return "", false
}

package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"protask/internal/model"
	"protask/internal/store"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seqIDs() IDGenerator {
	n := 0
	return func(prefix string, exists func(string) bool) string {
		for {
			n++
			id := fmt.Sprintf("%s-%d", prefix, n)
			if !exists(id) {
				return id
			}
		}
	}
}

type failingPersister struct {
	inner   store.Persister
	failing bool
	saves   int
}

func (f *failingPersister) Load(ctx context.Context) (*model.Snapshot, bool, error) {
	return f.inner.Load(ctx)
}

func (f *failingPersister) Save(ctx context.Context, snap *model.Snapshot) error {
	f.saves++
	if f.failing {
		return errors.New("disk full")
	}
	return f.inner.Save(ctx, snap)
}

func openTestStore(t *testing.T, seed *model.Snapshot) (*Store, *failingPersister) {
	t.Helper()
	ctx := context.Background()
	p := &failingPersister{inner: store.New(store.NewMemoryBackend())}
	if seed != nil {
		if err := p.inner.Save(ctx, seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	s, err := Open(ctx, p, WithClock(func() time.Time { return fixedNow }), WithIDGenerator(seqIDs()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p.saves = 0
	return s, p
}

func emptySnapshot() *model.Snapshot {
	return &model.Snapshot{
		Version:           model.SnapshotVersion,
		Projects:          []model.Project{},
		Tasks:             []model.Task{},
		SelectedProjectID: model.AllProjectsID,
		SortOrder:         model.SortDueDate,
		Theme:             model.ThemeLight,
	}
}

func TestOpen_SeedsDefaultSnapshot(t *testing.T) {
	ctx := context.Background()
	p := store.New(store.NewMemoryBackend())
	s, err := Open(ctx, p, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Projects) != 1 || len(snap.Tasks) != 1 {
		t.Fatalf("expected 1 project and 1 task, got %d/%d", len(snap.Projects), len(snap.Tasks))
	}
	proj, task := snap.Projects[0], snap.Tasks[0]
	if proj.Name != "Getting Started" || snap.SelectedProjectID != proj.ID || task.ProjectID != proj.ID {
		t.Fatalf("unexpected seed project/selection: %+v sel=%q task=%+v", proj, snap.SelectedProjectID, task)
	}
	if task.Priority != model.PriorityHigh || task.DueDate != "2026-03-10" {
		t.Fatalf("unexpected seed task: %+v", task)
	}
	if snap.SortOrder != model.SortDueDate || snap.Theme != model.ThemeLight || snap.SearchTerm != "" {
		t.Fatalf("unexpected seed settings: sort=%q theme=%q search=%q", snap.SortOrder, snap.Theme, snap.SearchTerm)
	}

	stored, ok, err := p.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("seed must be persisted: ok=%v err=%v", ok, err)
	}
	if stored.Tasks[0].ID != task.ID {
		t.Fatalf("stored task id = %q, want %q", stored.Tasks[0].ID, task.ID)
	}
}

func TestOpen_LoadFailureIsReported(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryBackend()
	if err := mem.Set(ctx, store.DefaultKey, []byte("{broken")); err != nil {
		t.Fatalf("set: %v", err)
	}

	s, err := Open(ctx, store.New(mem))
	if s != nil || !IsPersistence(err) {
		t.Fatalf("expected nil store and persistence error, got %v, %v", s, err)
	}
}

func TestCreateProject(t *testing.T) {
	s, p := openTestStore(t, emptySnapshot())
	ctx := context.Background()

	proj, err := s.CreateProject(ctx, "  Work  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if proj.Name != "Work" || s.Snapshot().SelectedProjectID != proj.ID || p.saves != 1 {
		t.Fatalf("unexpected create result: %+v sel=%q saves=%d", proj, s.Snapshot().SelectedProjectID, p.saves)
	}

	if _, err := s.CreateProject(ctx, "   "); !IsValidation(err) {
		t.Fatalf("blank name: expected validation error, got %v", err)
	}
	// Duplicates are rejected case-insensitively.
	if _, err := s.CreateProject(ctx, "WORK"); !IsValidation(err) {
		t.Fatalf("duplicate name: expected validation error, got %v", err)
	}
	if len(s.Snapshot().Projects) != 1 || p.saves != 1 {
		t.Fatalf("rejected creates must not change or write state")
	}
}

func TestDeleteProject_CascadesExactlyItsTasks(t *testing.T) {
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}, {ID: "p2", Name: "Home"}}
	seed.Tasks = []model.Task{
		{ID: "t1", ProjectID: "p1", Text: "a"},
		{ID: "t2", ProjectID: "p2", Text: "b"},
		{ID: "t3", ProjectID: "p1", Text: "c"},
		{ID: "t4", ProjectID: "", Text: "d"},
	}
	seed.SelectedProjectID = "p1"
	s, _ := openTestStore(t, seed)

	res, err := s.DeleteProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.TasksDeleted != 2 {
		t.Fatalf("TasksDeleted = %d, want 2", res.TasksDeleted)
	}

	snap := s.Snapshot()
	if snap.SelectedProjectID != model.AllProjectsID {
		t.Fatalf("selection = %q, want all", snap.SelectedProjectID)
	}
	if len(snap.Tasks) != 2 || snap.Tasks[0].ID != "t2" || snap.Tasks[1].ID != "t4" || len(snap.Projects) != 1 {
		t.Fatalf("unexpected remaining state: %+v", snap)
	}

	if _, err := s.DeleteProject(context.Background(), "p1"); !IsNotFound(err) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestDeleteProject_KeepsOtherSelection(t *testing.T) {
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}, {ID: "p2", Name: "Home"}}
	seed.SelectedProjectID = "p2"
	s, _ := openTestStore(t, seed)

	if _, err := s.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.Snapshot().SelectedProjectID; got != "p2" {
		t.Fatalf("selection = %q, want p2", got)
	}
}

func TestUpsertTask_CreatesWithDefaults(t *testing.T) {
	s, _ := openTestStore(t, emptySnapshot())

	task, err := s.UpsertTask(context.Background(), "", TaskInput{
		Text:    "  Ship  ",
		DueDate: "2099-01-01",
		Notes:   "line1\nline2",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	want := model.Task{
		ID:        task.ID,
		Text:      "Ship",
		Priority:  model.PriorityMedium,
		DueDate:   "2099-01-01",
		Notes:     "line1\nline2",
		CreatedAt: fixedNow,
	}
	if !reflect.DeepEqual(task, want) {
		t.Fatalf("task = %+v, want %+v", task, want)
	}
}

func TestUpsertTask_ImplicitProjectCreation(t *testing.T) {
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}}
	s, _ := openTestStore(t, seed)
	ctx := context.Background()

	task, err := s.UpsertTask(ctx, "", TaskInput{ProjectName: "work", Text: "a", Priority: "high"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if task.ProjectID != "p1" {
		t.Fatalf("existing project should match case-insensitively, got %q", task.ProjectID)
	}

	task, err = s.UpsertTask(ctx, "", TaskInput{ProjectName: "Wrok", Text: "b"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Projects) != 2 || snap.Projects[1].Name != "Wrok" || task.ProjectID != snap.Projects[1].ID {
		t.Fatalf("expected implicit project Wrok, got %+v (task project %q)", snap.Projects, task.ProjectID)
	}
	if snap.SelectedProjectID != model.AllProjectsID {
		t.Fatalf("implicit creation changed the selection to %q", snap.SelectedProjectID)
	}
}

func TestUpsertTask_EditPreservesIdentity(t *testing.T) {
	created := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}}
	seed.Tasks = []model.Task{{ID: "t1", ProjectID: "p1", Text: "old", Priority: model.PriorityLow, DueDate: "2025-01-02", IsComplete: true, CreatedAt: created}}
	s, _ := openTestStore(t, seed)

	task, err := s.UpsertTask(context.Background(), "t1", TaskInput{Text: "new", Priority: "HIGH", DueDate: "not a date", Notes: "n"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Malformed dates are stored as entered.
	want := model.Task{ID: "t1", Text: "new", Priority: model.PriorityHigh, DueDate: "not a date", Notes: "n", IsComplete: true, CreatedAt: created}
	if !reflect.DeepEqual(task, want) {
		t.Fatalf("task = %+v, want %+v", task, want)
	}
	if n := len(s.Snapshot().Tasks); n != 1 {
		t.Fatalf("edit added a task: %d tasks", n)
	}
}

func TestUpsertTask_UnknownIDCreates(t *testing.T) {
	s, _ := openTestStore(t, emptySnapshot())
	task, err := s.UpsertTask(context.Background(), "task-missing", TaskInput{Text: "x"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if task.ID == "task-missing" || len(s.Snapshot().Tasks) != 1 {
		t.Fatalf("expected a new task with a fresh id, got %+v", task)
	}
}

func TestUpsertTask_ValidationLeavesStateUnchanged(t *testing.T) {
	s, p := openTestStore(t, emptySnapshot())
	ctx := context.Background()
	before := s.Snapshot()

	for _, in := range []TaskInput{
		{ProjectName: "New", Text: "  "},
		{ProjectName: "New", Text: "x", Priority: "urgent"},
	} {
		if _, err := s.UpsertTask(ctx, "", in); !IsValidation(err) {
			t.Fatalf("%+v: expected validation error, got %v", in, err)
		}
	}
	if !reflect.DeepEqual(before, s.Snapshot()) || p.saves != 0 {
		t.Fatalf("rejected upserts changed state (saves=%d)", p.saves)
	}
}

func TestToggleComplete_IsItsOwnInverse(t *testing.T) {
	seed := emptySnapshot()
	seed.Tasks = []model.Task{{ID: "t1", Text: "a", Priority: model.PriorityLow, DueDate: "2026-01-01", CreatedAt: fixedNow}}
	s, _ := openTestStore(t, seed)
	ctx := context.Background()
	before := s.Snapshot().Tasks[0]

	first, err := s.ToggleComplete(ctx, "t1")
	if err != nil || !first.IsComplete {
		t.Fatalf("first toggle: %+v, %v", first, err)
	}
	if _, err := s.ToggleComplete(ctx, "t1"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if after := s.Snapshot().Tasks[0]; !reflect.DeepEqual(before, after) {
		t.Fatalf("double toggle = %+v, want %+v", after, before)
	}
}

func TestToggleAndDelete_MissingTaskIsBenign(t *testing.T) {
	s, p := openTestStore(t, emptySnapshot())
	ctx := context.Background()

	if _, err := s.ToggleComplete(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("toggle: expected not found, got %v", err)
	}
	if err := s.DeleteTask(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
	if p.saves != 0 {
		t.Fatalf("no-op mutations wrote %d times", p.saves)
	}
}

func TestDeleteTask(t *testing.T) {
	seed := emptySnapshot()
	seed.Tasks = []model.Task{{ID: "t1", Text: "a"}, {ID: "t2", Text: "b"}}
	s, _ := openTestStore(t, seed)

	if err := s.DeleteTask(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "t2" {
		t.Fatalf("remaining tasks = %+v", snap.Tasks)
	}
}

func TestSetters(t *testing.T) {
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}}
	s, p := openTestStore(t, seed)
	ctx := context.Background()

	if err := s.SetSelectedProject(ctx, "p1"); err != nil {
		t.Fatalf("select p1: %v", err)
	}
	if err := s.SetSelectedProject(ctx, "p9"); !IsNotFound(err) {
		t.Fatalf("select p9: expected not found, got %v", err)
	}
	if got := s.Snapshot().SelectedProjectID; got != "p1" {
		t.Fatalf("selection = %q, want p1", got)
	}
	if err := s.SetSelectedProject(ctx, ""); err != nil {
		t.Fatalf("select all: %v", err)
	}
	if got := s.Snapshot().SelectedProjectID; got != model.AllProjectsID {
		t.Fatalf("selection = %q, want all", got)
	}

	if err := s.SetSortOrder(ctx, "priority"); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if err := s.SetSortOrder(ctx, "random"); !IsValidation(err) {
		t.Fatalf("bad sort: expected validation error, got %v", err)
	}
	if got := s.Snapshot().SortOrder; got != model.SortPriority {
		t.Fatalf("sort = %q, want priority", got)
	}

	theme, err := s.ToggleTheme(ctx)
	if err != nil || theme != model.ThemeDark {
		t.Fatalf("toggle theme = %q, %v", theme, err)
	}

	savesBefore := p.saves
	s.SetSearchTerm("ship")
	if got := s.Snapshot().SearchTerm; got != "ship" {
		t.Fatalf("search = %q", got)
	}
	if p.saves != savesBefore {
		t.Fatalf("search term was written to storage")
	}

	stored, _, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Theme != model.ThemeDark || stored.SortOrder != model.SortPriority || stored.SearchTerm != "" {
		t.Fatalf("stored settings = theme %q sort %q search %q", stored.Theme, stored.SortOrder, stored.SearchTerm)
	}
}

func TestPersistenceFailure_KeepsStoreUsable(t *testing.T) {
	s, p := openTestStore(t, emptySnapshot())
	ctx := context.Background()
	p.failing = true

	proj, err := s.CreateProject(ctx, "Work")
	if !IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if inner := errors.Unwrap(err); inner == nil || inner.Error() != "disk full" {
		t.Fatalf("unwrapped error = %v", inner)
	}
	if _, ok := s.Snapshot().FindProject(proj.ID); !ok {
		t.Fatalf("in-memory change should stay applied")
	}

	p.failing = false
	if _, err := s.UpsertTask(ctx, "", TaskInput{ProjectName: "Work", Text: "x"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	stored, _, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Projects) != 1 {
		t.Fatalf("next successful write should catch storage up, got %d projects", len(stored.Projects))
	}
}

func TestSubscribe_NotifiedAfterMutation(t *testing.T) {
	s, _ := openTestStore(t, emptySnapshot())
	ctx := context.Background()

	var got []Change
	cancel := s.Subscribe(func(c Change) {
		// Reading the store from a listener must not deadlock.
		_ = s.Snapshot()
		got = append(got, c)
	})
	proj, err := s.CreateProject(ctx, "Work")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.SetSearchTerm("x")
	cancel()
	if _, err := s.ToggleTheme(ctx); err != nil {
		t.Fatalf("toggle theme: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d changes, want 2: %+v", len(got), got)
	}
	if got[0] != (Change{Op: OpCreateProject, ID: proj.ID}) || got[1].Op != OpSetSearchTerm {
		t.Fatalf("changes = %+v", got)
	}
}

func TestConfirmationProtocol(t *testing.T) {
	seed := emptySnapshot()
	seed.Projects = []model.Project{{ID: "p1", Name: "Work"}}
	seed.Tasks = []model.Task{{ID: "t1", ProjectID: "p1", Text: "a"}, {ID: "t2", ProjectID: "p1", Text: "b"}}
	s, p := openTestStore(t, seed)
	ctx := context.Background()

	c, err := s.RequestDeleteProject("p1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if c.Action != ConfirmDeleteProject || c.Cascade != 2 || !strings.Contains(c.Prompt, `"Work"`) {
		t.Fatalf("unexpected confirmation: %+v", c)
	}
	if len(s.Snapshot().Tasks) != 2 || p.saves != 0 {
		t.Fatalf("requesting must not mutate")
	}

	if err := s.Confirm(ctx, c); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if n := len(s.Snapshot().Tasks); n != 0 {
		t.Fatalf("%d tasks left after cascade", n)
	}

	if _, err := s.RequestDeleteTask("t1"); !IsNotFound(err) {
		t.Fatalf("request deleted task: expected not found, got %v", err)
	}
	if err := s.Confirm(ctx, Confirmation{Action: "explode"}); !IsValidation(err) {
		t.Fatalf("unknown action: expected validation error, got %v", err)
	}
}

func TestRandomOps_NoDanglingProjectReferences(t *testing.T) {
	s, _ := openTestStore(t, emptySnapshot())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	names := []string{"Work", "Home", "Garden", "Taxes", ""}

	for i := 0; i < 300; i++ {
		snap := s.Snapshot()
		switch rng.Intn(4) {
		case 0:
			_, _ = s.CreateProject(ctx, names[rng.Intn(len(names))])
		case 1:
			if len(snap.Projects) > 0 {
				p := snap.Projects[rng.Intn(len(snap.Projects))]
				before := len(snap.Tasks)
				want, _ := model.CountTasks(snap.Tasks, p.ID)
				res, err := s.DeleteProject(ctx, p.ID)
				if err != nil {
					t.Fatalf("step %d: delete project: %v", i, err)
				}
				if res.TasksDeleted != want || len(s.Snapshot().Tasks) != before-want {
					t.Fatalf("step %d: cascade removed %d, want %d", i, res.TasksDeleted, want)
				}
			}
		case 2:
			if _, err := s.UpsertTask(ctx, "", TaskInput{ProjectName: names[rng.Intn(len(names))], Text: fmt.Sprintf("task %d", i)}); err != nil {
				t.Fatalf("step %d: upsert: %v", i, err)
			}
		case 3:
			if len(snap.Tasks) > 0 {
				if err := s.DeleteTask(ctx, snap.Tasks[rng.Intn(len(snap.Tasks))].ID); err != nil {
					t.Fatalf("step %d: delete task: %v", i, err)
				}
			}
		}

		after := s.Snapshot()
		for _, task := range after.Tasks {
			if task.ProjectID == "" {
				continue
			}
			if _, ok := after.FindProject(task.ProjectID); !ok {
				t.Fatalf("step %d: task %s references missing project %s", i, task.ID, task.ProjectID)
			}
		}
		if sel := after.SelectedProjectID; sel != model.AllProjectsID {
			if _, ok := after.FindProject(sel); !ok {
				t.Fatalf("step %d: selection %s dangles", i, sel)
			}
		}
	}
}

func TestNewRandomID_RetriesOnCollision(t *testing.T) {
	calls := 0
	id := NewRandomID("task", func(string) bool {
		calls++
		return calls <= 3
	})
	if !regexp.MustCompile(`^task-[a-z2-7]{8}$`).MatchString(id) {
		t.Fatalf("id %q has the wrong shape", id)
	}
	if calls != 4 {
		t.Fatalf("exists called %d times, want 4", calls)
	}

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewRandomID("proj", func(s string) bool { return seen[s] })
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

package view

import (
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"protask/internal/model"
)

func day(d int) time.Time { return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC) }

func fixture() *model.Snapshot {
	return &model.Snapshot{
		Version: model.SnapshotVersion,
		Projects: []model.Project{
			{ID: "p1", Name: "Work"},
			{ID: "p2", Name: "Home"},
			{ID: "p3", Name: "Empty"},
		},
		Tasks: []model.Task{
			{ID: "t1", ProjectID: "p1", Text: "Write report", Priority: model.PriorityLow, DueDate: "2026-03-20", CreatedAt: day(1)},
			{ID: "t2", ProjectID: "p1", Text: "Review PR", Priority: model.PriorityHigh, DueDate: "2026-03-12", Notes: "check the `Report` numbers", CreatedAt: day(3), IsComplete: true},
			{ID: "t3", ProjectID: "p2", Text: "Groceries", Priority: model.PriorityMedium, DueDate: "2026-03-12", CreatedAt: day(2)},
			{ID: "t4", ProjectID: "gone", Text: "Orphan", Priority: model.PriorityHigh, DueDate: "bogus", CreatedAt: day(4)},
		},
		SelectedProjectID: model.AllProjectsID,
		SortOrder:         model.SortDueDate,
		Theme:             model.ThemeLight,
	}
}

func rowIDs(rows []TaskRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Task.ID)
	}
	return out
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestProjectList(t *testing.T) {
	rows := ProjectList(fixture())
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	all := ProjectRow{ID: model.AllProjectsID, Name: AllTasksName, TaskCount: 4, Active: true, Synthetic: true}
	if rows[0] != all {
		t.Fatalf("all row = %+v, want %+v", rows[0], all)
	}
	if rows[1].ID != "p1" || rows[1].TaskCount != 2 || rows[1].Completed != 1 || math.Abs(rows[1].Progress-0.5) > 1e-9 {
		t.Fatalf("unexpected p1 row: %+v", rows[1])
	}
	if rows[3].TaskCount != 0 || rows[3].Progress != 0 {
		t.Fatalf("project without tasks should have zero progress: %+v", rows[3])
	}
}

func TestTaskList_FilterByProject(t *testing.T) {
	v := TaskList(fixture(), Filters{ProjectID: "p1", SortOrder: model.SortDueDate}, day(10))
	if got := rowIDs(v.Rows); !slices.Equal(got, []string{"t2", "t1"}) {
		t.Fatalf("rows = %v, want [t2 t1]", got)
	}
	if v.Empty {
		t.Fatalf("list should not be empty")
	}
}

func TestTaskList_DanglingProjectShowsNA(t *testing.T) {
	v := TaskList(fixture(), Filters{ProjectID: model.AllProjectsID}, day(10))
	for _, r := range v.Rows {
		if r.Task.ID != "t4" {
			continue
		}
		if r.ProjectName != NoProject {
			t.Fatalf("project name = %q, want %q", r.ProjectName, NoProject)
		}
		if r.Countdown.Known {
			t.Fatalf("countdown for an unparseable date should be unknown: %+v", r.Countdown)
		}
		return
	}
	t.Fatalf("t4 missing from list")
}

func TestTaskList_SearchMatchesTextOrNotes(t *testing.T) {
	v := TaskList(fixture(), Filters{ProjectID: model.AllProjectsID, SearchTerm: "REPORT"}, day(10))
	got := rowIDs(v.Rows)
	sort.Strings(got)
	if !slices.Equal(got, []string{"t1", "t2"}) {
		t.Fatalf("rows = %v, want t1 and t2", got)
	}
}

func TestTaskList_SearchNarrows(t *testing.T) {
	snap := fixture()
	all := FilterTasks(snap.Tasks, Filters{ProjectID: model.AllProjectsID})
	for _, term := range []string{"", "r", "re", "orphan", "zzz", "`"} {
		got := FilterTasks(snap.Tasks, Filters{ProjectID: model.AllProjectsID, SearchTerm: term})
		if len(got) > len(all) {
			t.Fatalf("term %q widened the list: %d > %d", term, len(got), len(all))
		}
		for _, task := range got {
			if !MatchesSearch(task, term) {
				t.Fatalf("task %s should match %q", task.ID, term)
			}
		}
	}
}

func TestTaskList_EmptyState(t *testing.T) {
	v := TaskList(fixture(), Filters{ProjectID: "p3"}, day(10))
	if !v.Empty || v.EmptyMessage != EmptyMessage || v.Rows == nil {
		t.Fatalf("unexpected empty state: %+v", v)
	}
	if v.Title != "Empty" {
		t.Fatalf("title = %q, want Empty", v.Title)
	}
}

func TestSortTasks_Priority_Stable(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Priority: model.PriorityLow},
		{ID: "b", Priority: model.PriorityHigh},
		{ID: "c", Priority: model.PriorityMedium},
		{ID: "d", Priority: model.PriorityHigh},
		{ID: "e", Priority: model.PriorityLow},
	}
	got := taskIDs(SortTasks(tasks, model.SortPriority))
	if !slices.Equal(got, []string{"b", "d", "c", "a", "e"}) {
		t.Fatalf("order = %v", got)
	}
	if tasks[0].ID != "a" {
		t.Fatalf("input was reordered")
	}
}

func TestSortTasks_CreationDateNewestFirst(t *testing.T) {
	got := taskIDs(SortTasks(fixture().Tasks, model.SortCreationDate))
	if !slices.Equal(got, []string{"t4", "t2", "t3", "t1"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestSortTasks_DueDateIdempotentAndStable(t *testing.T) {
	once := SortTasks(fixture().Tasks, model.SortDueDate)
	twice := SortTasks(once, model.SortDueDate)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("sorting twice changed the order")
	}
	// t2 and t3 share a due date and keep their input order; invalid dates go last.
	if got := taskIDs(once); !slices.Equal(got, []string{"t2", "t3", "t1", "t4"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestCountdown(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task model.Task
		want Countdown
	}{
		{"completed wins", model.Task{DueDate: "2020-01-01", IsComplete: true}, Countdown{Text: "Completed", Known: true}},
		{"later today", model.Task{DueDate: "2026-03-10"}, Countdown{Text: "11h remaining", Known: true}},
		{"days ahead", model.Task{DueDate: "2026-03-12"}, Countdown{Text: "2d 11h remaining", Known: true}},
		{"overdue", model.Task{DueDate: "2026-03-08"}, Countdown{Text: "Overdue by 1d 12h", Overdue: true, Known: true}},
		{"empty date", model.Task{}, Countdown{Text: "No due date"}},
		{"invalid date", model.Task{DueDate: "soon"}, Countdown{Text: "Invalid due date"}},
		{"far future", model.Task{DueDate: "9999-12-31"}, Countdown{Text: "2912374d 11h remaining", Known: true}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := CountdownFor(tt.task, now); got != tt.want {
				t.Fatalf("CountdownFor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{59 * time.Minute, "0h"},
		{-(23*time.Hour + 59*time.Minute), "23h"},
		{24 * time.Hour, "1d 0h"},
		{-(3*24*time.Hour + 5*time.Hour + 10*time.Minute), "3d 5h"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.d); got != tt.want {
			t.Fatalf("FormatDistance(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	snap := fixture()
	for _, tt := range []struct{ selected, want string }{
		{model.AllProjectsID, AllTasksName},
		{"p2", "Home"},
		{"missing", AllTasksName},
	} {
		snap.SelectedProjectID = tt.selected
		if got := Title(snap); got != tt.want {
			t.Fatalf("Title with %q selected = %q, want %q", tt.selected, got, tt.want)
		}
	}
}

func TestEditForm(t *testing.T) {
	snap := fixture()
	snap.SelectedProjectID = "p2"
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	add := EditForm(snap, "", now)
	if add.Title != "Add New Task" || add.ProjectName != "Home" || add.DueDate != "2026-03-10" {
		t.Fatalf("unexpected add form: %+v", add)
	}
	if !slices.Equal(add.Suggestions, []string{"Work", "Home", "Empty"}) {
		t.Fatalf("suggestions = %v", add.Suggestions)
	}

	edit := EditForm(snap, "t2", now)
	if edit.Title != "Edit Task" || edit.TaskID != "t2" || edit.ProjectName != "Work" || edit.Priority != "high" {
		t.Fatalf("unexpected edit form: %+v", edit)
	}

	if orphan := EditForm(snap, "t4", now); orphan.ProjectName != "" {
		t.Fatalf("dangling project should prefill empty, got %q", orphan.ProjectName)
	}
}

func TestViews_DoNotMutateSnapshot(t *testing.T) {
	snap := fixture()
	before := snap.Clone()
	_ = ProjectList(snap)
	_ = TaskList(snap, Filters{ProjectID: model.AllProjectsID, SearchTerm: "r", SortOrder: model.SortPriority}, day(10))
	_ = EditForm(snap, "t1", day(10))
	if !reflect.DeepEqual(before, snap) {
		t.Fatalf("views modified the snapshot")
	}
}

func TestNotesHTML(t *testing.T) {
	if got := NotesHTML("   "); got != "" {
		t.Fatalf("blank notes = %q", got)
	}
	tests := []struct {
		md       string
		contains []string
		absent   string
	}{
		{"Use `go test` here", []string{"<code>go test</code>"}, ""},
		{"```\nfmt.Println(1)\n```", []string{"<pre><code>", "fmt.Println(1)"}, ""},
		{"<script>alert(1)</script>", nil, "<script>"},
	}
	for _, tt := range tests {
		got := NotesHTML(tt.md)
		for _, want := range tt.contains {
			if !strings.Contains(got, want) {
				t.Fatalf("NotesHTML(%q) = %q, missing %q", tt.md, got, want)
			}
		}
		if tt.absent != "" && strings.Contains(got, tt.absent) {
			t.Fatalf("NotesHTML(%q) = %q, should not contain %q", tt.md, got, tt.absent)
		}
	}
}

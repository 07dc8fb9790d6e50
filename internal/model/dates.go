package model

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date (YYYY-MM-DD) with no time component. The raw text is kept
// as entered; malformed values are stored but never parsed into a time.
type Date string

func DateOf(t time.Time) Date { return Date(t.Format(dateLayout)) }

func (d Date) String() string { return string(d) }

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (d Date) Valid() bool {
	_, ok := d.In(time.UTC)
	return ok
}

// StartOfDay is 00:00:00 of d in loc.
func (d Date) StartOfDay(loc *time.Location) (time.Time, bool) {
	return d.In(loc)
}

// EndOfDay is 23:59:59 wall-clock time of d in loc, so DST shifts do not move it.
func (d Date) EndOfDay(loc *time.Location) (time.Time, bool) {
	t, ok := d.In(loc)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location()), true
}

// Overdue is used for live display: the task is due by the end of its day.
func (t Task) Overdue(now time.Time) bool {
	if t.IsComplete {
		return false
	}
	end, ok := t.DueDate.EndOfDay(now.Location())
	if !ok {
		return false
	}
	return end.Before(now)
}

// Missed is used only by export and compares against the start of the due day,
// so a task due today counts as missed but not overdue.
func (t Task) Missed(now time.Time) bool {
	if t.IsComplete {
		return false
	}
	start, ok := t.DueDate.StartOfDay(now.Location())
	if !ok {
		return false
	}
	return start.Before(now)
}

// Progress is the completed/total ratio of tasks in projectID, 0 when there are none.
func Progress(tasks []Task, projectID string) float64 {
	total, done := CountTasks(tasks, projectID)
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func CountTasks(tasks []Task, projectID string) (total, done int) {
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.IsComplete {
			done++
		}
	}
	return total, done
}

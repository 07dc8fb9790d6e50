// Package export serializes a snapshot into the task CSV that users download or copy.
package export

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"time"

	"protask/internal/model"
)

// Filename is the suggested download name.
const Filename = "pro_task_manager_export.csv"

// Header is the first row of every export.
const Header = "Task_ID,Project_Name,Task_Name,Priority,Due_Date,Notes,Complete_Status,Missed_Status,Creation_Date"

const createdAtLayout = "2006-01-02T15:04:05.000Z"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Write emits the header and one row per task, in snapshot order. Rows are separated
// by "\n" with no trailing newline. Missed status is evaluated against now.
func Write(w io.Writer, snap *model.Snapshot, now time.Time) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header); err != nil {
		return err
	}
	if snap != nil {
		for _, t := range snap.Tasks {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
			if _, err := bw.WriteString(Row(snap, t, now)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func Bytes(snap *model.Snapshot, now time.Time) []byte {
	var b bytes.Buffer
	_ = Write(&b, snap, now)
	return b.Bytes()
}

// Row formats a single task. Text columns are always quoted; a dangling project
// reference exports as an empty quoted field.
func Row(snap *model.Snapshot, t model.Task, now time.Time) string {
	var project string
	if snap != nil {
		project, _ = snap.ProjectName(t.ProjectID)
	}
	fields := []string{
		quoteIfNeeded(t.ID),
		quote(project),
		quote(t.Text),
		quoteIfNeeded(string(t.Priority)),
		quoteIfNeeded(string(t.DueDate)),
		quote(lineBreaks.Replace(t.Notes)),
		yesNo(t.IsComplete),
		yesNo(t.Missed(now)),
		t.CreatedAt.UTC().Format(createdAtLayout),
	}
	return strings.Join(fields, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteIfNeeded leaves well-formed values bare. Stored due dates and priorities are
// kept as entered, so they may carry a delimiter or quote.
func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

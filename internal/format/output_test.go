package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID         string   `json:"id"`
	ProjectID  string   `json:"projectId"`
	IsComplete bool     `json:"isComplete"`
	Progress   float64  `json:"progress"`
	Count      int      `json:"count"`
	Tags       []string `json:"tags"`
	Notes      *string  `json:"notes"`
}

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", JSON, false},
		{"JSON", JSON, false},
		{"edn", EDN, false},
		{"yml", YAML, false},
		{" yaml ", YAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteJSON_Compact(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := Write(&b, sample{ID: "t1", Count: 2, Tags: []string{}}, "json", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{"id":"t1","projectId":"","isComplete":false,"progress":0,"count":2,"tags":[],"notes":null}` + "\n"
	if b.String() != want {
		t.Fatalf("got %q, want %q", b.String(), want)
	}
}

func TestWriteEDN_KeywordsAndScalars(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	v := sample{ID: "t1", ProjectID: "p1", IsComplete: true, Progress: 0.5, Count: 3, Tags: []string{"a", "b"}}
	if err := Write(&b, v, "edn", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{:count 3 :id "t1" :is-complete true :notes nil :progress 0.5 :project-id "p1" :tags ["a" "b"]}` + "\n"
	if b.String() != want {
		t.Fatalf("got %q, want %q", b.String(), want)
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := WriteEDN(&b, map[string]any{"rows": []int{1}, "empty": []int{}}, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\n  :empty []\n  :rows [\n    1\n  ]\n}\n"
	if b.String() != want {
		t.Fatalf("got %q, want %q", b.String(), want)
	}
}

func TestKeyword(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"id":                ":id",
		"selectedProjectId": ":selected-project-id",
		"data_dir":          ":data-dir",
		"notesHtml":         ":notes-html",
	} {
		if got := Keyword(in); got != want {
			t.Fatalf("Keyword(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := Write(&b, sample{ID: "t1", Count: 2, Progress: 0.25, Tags: []string{"x"}}, "yaml", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := b.String()
	for _, want := range []string{"id: t1\n", "count: 2\n", "progress: 0.25\n", "tags:\n  - x\n", "notes: null\n", "isComplete: false\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := Write(&b, 1, "toml", false); err == nil {
		t.Fatalf("expected error")
	}
	if b.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", b.String())
	}
}

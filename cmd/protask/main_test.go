package main

import (
	"reflect"
	"testing"
)

func TestRewriteTaskShortcut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"protask"},
			want: []string{"protask"},
		},
		{
			name: "task id first token",
			in:   []string{"protask", "task-abc123"},
			want: []string{"protask", "tasks", "show", "task-abc123"},
		},
		{
			name: "task id after value flag",
			in:   []string{"protask", "--dir", "./tmp-data", "task-abc123"},
			want: []string{"protask", "--dir", "./tmp-data", "tasks", "show", "task-abc123"},
		},
		{
			name: "task id after equals flag",
			in:   []string{"protask", "--format=yaml", "task-abc123"},
			want: []string{"protask", "--format=yaml", "tasks", "show", "task-abc123"},
		},
		{
			name: "task id after bool flags",
			in:   []string{"protask", "--pretty", "-v", "task-abc123"},
			want: []string{"protask", "--pretty", "-v", "tasks", "show", "task-abc123"},
		},
		{
			name: "task id after double dash",
			in:   []string{"protask", "--dir", "./tmp-data", "--", "task-abc123"},
			want: []string{"protask", "--dir", "./tmp-data", "--", "tasks", "show", "task-abc123"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"protask", "tasks", "toggle", "task-abc123"},
			want: []string{"protask", "tasks", "toggle", "task-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"protask", "task-"},
			want: []string{"protask", "task-"},
		},
		{
			name: "project id not rewritten",
			in:   []string{"protask", "proj-abc123"},
			want: []string{"protask", "proj-abc123"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteTaskShortcut(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteTaskShortcut:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

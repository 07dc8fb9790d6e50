package store

import (
	"fmt"
	"strings"
)

type BackendKind string

const (
	BackendSQLite BackendKind = "sqlite"
	BackendFile   BackendKind = "file"
	BackendMemory BackendKind = "memory"
)

// OpenBackend returns the backend of the given kind rooted at dir.
func OpenBackend(kind string, dir string) (Backend, error) {
	switch BackendKind(strings.ToLower(strings.TrimSpace(kind))) {
	case BackendSQLite, "":
		return NewSQLiteBackend(dir), nil
	case BackendFile:
		return FileBackend{Dir: dir}, nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q (expected sqlite|file|memory)", kind)
	}
}

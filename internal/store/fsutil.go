package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var reUnsafeKey = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileBackend stores each key as <Dir>/<key>.json. Writes go through a temp file and
// rename, and the previous blob is kept as <key>.json.bak.
type FileBackend struct {
	Dir string
}

func (f FileBackend) path(key string) (string, error) {
	name := reUnsafeKey.ReplaceAllString(strings.TrimSpace(key), "_")
	if name == "" || strings.Trim(name, ".") == "" {
		return "", errors.New("file backend: invalid key")
	}
	if strings.TrimSpace(f.Dir) == "" {
		return "", errors.New("file backend: empty dir")
	}
	return filepath.Join(f.Dir, name+".json"), nil
}

func (f FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (f FileBackend) Set(_ context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(path)
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, base+".bak.*.tmp", path+".bak", prev, 0o600)
	}
	return atomicWriteFile(dir, base+".*.tmp", path, value, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

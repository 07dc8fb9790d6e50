package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"protask/internal/model"
)

// DefaultKey is the storage key the application state lives under.
const DefaultKey = "proTaskAppState"

// Backend is an opaque key-value blob store. It has no knowledge of the snapshot schema.
type Backend interface {
	// Get returns ok=false (and no error) when key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Persister loads and saves the application snapshot through a Backend.
type Persister struct {
	Backend Backend
	Key     string
}

func New(b Backend) Persister {
	return Persister{Backend: b, Key: DefaultKey}
}

func (p Persister) key() string {
	if k := strings.TrimSpace(p.Key); k != "" {
		return k
	}
	return DefaultKey
}

// Load returns ok=false when nothing has been stored yet.
func (p Persister) Load(ctx context.Context) (*model.Snapshot, bool, error) {
	if p.Backend == nil {
		return nil, false, errors.New("store: nil backend")
	}
	b, ok, err := p.Backend.Get(ctx, p.key())
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", p.key(), err)
	}
	if !ok || len(strings.TrimSpace(string(b))) == 0 {
		return nil, false, nil
	}
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", p.key(), err)
	}
	migrateSnapshot(&snap)
	return &snap, true, nil
}

// Save writes snap. The search term is session state and is never written.
func (p Persister) Save(ctx context.Context, snap *model.Snapshot) error {
	if p.Backend == nil {
		return errors.New("store: nil backend")
	}
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	out := *snap
	out.SearchTerm = ""
	if out.Version == 0 {
		out.Version = model.SnapshotVersion
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.key(), err)
	}
	if err := p.Backend.Set(ctx, p.key(), b); err != nil {
		return fmt.Errorf("save %s: %w", p.key(), err)
	}
	return nil
}

// migrateSnapshot upgrades blobs written before the version field existed and fills
// defaults for fields older writers left empty. Load never writes; the upgraded form
// reaches storage with the next save.
func migrateSnapshot(s *model.Snapshot) {
	if s.Version == 0 {
		s.Version = model.SnapshotVersion
	}
	if s.Projects == nil {
		s.Projects = []model.Project{}
	}
	if s.Tasks == nil {
		s.Tasks = []model.Task{}
	}
	if order, ok := model.ParseSortOrder(string(s.SortOrder)); ok {
		s.SortOrder = order
	} else {
		s.SortOrder = model.SortDueDate
	}
	if s.Theme != model.ThemeLight && s.Theme != model.ThemeDark {
		s.Theme = model.ThemeLight
	}
	sel := strings.TrimSpace(s.SelectedProjectID)
	if sel == "" {
		sel = model.AllProjectsID
	}
	if sel != model.AllProjectsID {
		if _, ok := s.FindProject(sel); !ok {
			sel = model.AllProjectsID
		}
	}
	s.SelectedProjectID = sel
	for i := range s.Tasks {
		if s.Tasks[i].Priority == "" {
			s.Tasks[i].Priority = model.PriorityMedium
		}
	}
	// Search is never restored from storage.
	s.SearchTerm = ""
}

// Package state holds the authoritative in-memory snapshot and the mutation API.
//
// Every mutation validates first, applies the change in one step, writes the snapshot
// through the Persister and then notifies subscribers. A failed write leaves the
// in-memory change applied and is reported as a *PersistenceError.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"protask/internal/model"
)

// Persister is the storage side of the store (see internal/store).
type Persister interface {
	Load(ctx context.Context) (*model.Snapshot, bool, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}

type Op string

const (
	OpSeed           Op = "seed"
	OpCreateProject  Op = "project.create"
	OpDeleteProject  Op = "project.delete"
	OpUpsertTask     Op = "task.upsert"
	OpToggleComplete Op = "task.toggle"
	OpDeleteTask     Op = "task.delete"
	OpSelectProject  Op = "filter.project"
	OpSetSearchTerm  Op = "filter.search"
	OpSetSortOrder   Op = "filter.sort"
	OpToggleTheme    Op = "theme.toggle"
	opLoad           Op = "load"
)

// Change is delivered to subscribers after every applied mutation.
type Change struct {
	Op Op
	ID string
}

type Store struct {
	mu        sync.Mutex
	snap      *model.Snapshot
	persister Persister

	now    func() time.Time
	newID  IDGenerator
	logger *slog.Logger

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Change)
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Open loads the persisted snapshot, or seeds and saves the first-run snapshot.
// A load failure is returned as-is and no store is created, so a corrupt blob is never
// overwritten. A failed seed write returns a usable store together with a
// *PersistenceError.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     NewRandomID,
		logger:    slog.New(slog.DiscardHandler),
		subs:      map[int]func(Change){},
	}
	for _, o := range opts {
		o(s)
	}

	snap, ok, err := p.Load(ctx)
	if err != nil {
		s.logger.Error("load state", "error", err)
		return nil, &PersistenceError{Op: string(opLoad), Err: err}
	}
	if ok {
		s.snap = snap
		s.logger.Debug("state loaded", "projects", len(snap.Projects), "tasks", len(snap.Tasks))
		return s, nil
	}

	s.snap = DefaultSnapshot(s.now(), s.newID)
	s.logger.Info("seeded default state")
	if err := p.Save(ctx, s.snap); err != nil {
		s.logger.Warn("save seeded state", "error", err)
		return s, &PersistenceError{Op: string(OpSeed), Err: err}
	}
	return s, nil
}

// DefaultSnapshot is the first-run state: one project with one example task, selected.
func DefaultSnapshot(now time.Time, gen IDGenerator) *model.Snapshot {
	if gen == nil {
		gen = NewRandomID
	}
	snap := &model.Snapshot{
		Version:    model.SnapshotVersion,
		Projects:   []model.Project{},
		Tasks:      []model.Task{},
		SortOrder:  model.SortDueDate,
		Theme:      model.ThemeLight,
		SearchTerm: "",
	}
	pid := gen("proj", snap.HasID)
	snap.Projects = append(snap.Projects, model.Project{ID: pid, Name: "Getting Started"})
	tid := gen("task", snap.HasID)
	snap.Tasks = append(snap.Tasks, model.Task{
		ID:        tid,
		ProjectID: pid,
		Text:      "Explore the new features",
		Priority:  model.PriorityHigh,
		DueDate:   model.DateOf(now),
		Notes:     "Try adding projects, tasks, and using markdown for `code`!",
		CreatedAt: now.UTC(),
	})
	snap.SelectedProjectID = pid
	return snap
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Now is the store's clock, exposed so views derive against the same time source.
func (s *Store) Now() time.Time { return s.now() }

// Subscribe registers fn for change notifications. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context, op Op, id string) error {
	if err := s.persister.Save(ctx, s.snap); err != nil {
		s.logger.Warn("persist state", "op", string(op), "id", id, "error", err)
		return &PersistenceError{Op: string(op), Err: err}
	}
	s.logger.Debug("state saved", "op", string(op), "id", id)
	return nil
}

func (s *Store) nextID(prefix string) string {
	return s.newID(prefix, s.snap.HasID)
}

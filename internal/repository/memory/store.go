// Package memory implements an in-process note store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
	"github.com/and161185/ngotes/internal/repository"
)

// Store keeps notes in memory. Sessions share the same notes.
type Store struct {
	mu    sync.RWMutex
	notes map[string]model.Note

	opened atomic.Int64
	closed atomic.Int64
}

// New returns an empty store.
func New() *Store {
	return &Store{notes: make(map[string]model.Note)}
}

// Connect opens a session; it never fails.
func (s *Store) Connect(context.Context) (repository.Session, error) {
	s.opened.Add(1)
	return &session{store: s}, nil
}

// Opened reports how many sessions were opened.
func (s *Store) Opened() int64 { return s.opened.Load() }

// Closed reports how many sessions were closed.
func (s *Store) Closed() int64 { return s.closed.Load() }

// Len reports the number of stored notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Get returns a stored note including its owner.
func (s *Store) Get(id string) (model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

type session struct {
	store  *Store
	closed atomic.Bool
}

func (ss *session) Close(context.Context) error {
	if !ss.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("session already closed")
	}
	ss.store.closed.Add(1)
	return nil
}

func (ss *session) List(_ context.Context, owner string, page model.Page) ([]model.Note, error) {
	ss.store.mu.RLock()
	out := make([]model.Note, 0, len(ss.store.notes))
	for _, n := range ss.store.notes {
		if n.Owner == owner {
			n.Owner = ""
			out = append(out, n)
		}
	}
	ss.store.mu.RUnlock()

	model.SortNotes(out)
	return model.PageNotes(out, page), nil
}

func (ss *session) Create(_ context.Context, n *model.Note) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	n.ID = id.String()

	ss.store.mu.Lock()
	defer ss.store.mu.Unlock()
	ss.store.notes[n.ID] = *n
	return nil
}

func (ss *session) Update(_ context.Context, owner, id string, patch model.NotePatch) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	ss.store.mu.Lock()
	defer ss.store.mu.Unlock()
	n, ok := ss.store.notes[id]
	if !ok || n.Owner != owner {
		return false, nil
	}
	patch.Apply(&n)
	ss.store.notes[id] = n
	return true, nil
}

func (ss *session) Delete(_ context.Context, owner, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	ss.store.mu.Lock()
	defer ss.store.mu.Unlock()
	n, ok := ss.store.notes[id]
	if !ok || n.Owner != owner {
		return false, nil
	}
	delete(ss.store.notes, id)
	return true, nil
}

func checkID(id string) error {
	if _, err := uuid.FromString(id); err != nil {
		return fmt.Errorf("%w: invalid note id", errs.ErrValidation)
	}
	return nil
}

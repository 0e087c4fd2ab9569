// Package memory provides an in-process journal store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/auri-app/auri/pkg/journal"
)

// Store keeps entries in a map guarded by a mutex. The zero value is not
// usable; call New.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]journal.Entry
}

var _ journal.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[uuid.UUID]journal.Entry)}
}

// NewSeeded returns a store holding the sample entries for userID.
func NewSeeded(userID string) *Store {
	s := New()
	for _, e := range journal.SampleEntries(userID) {
		s.entries[e.ID] = e
	}
	return s
}

func (s *Store) Create(_ context.Context, e journal.Entry) (journal.Entry, error) {
	e, err := journal.Prepare(e)
	if err != nil {
		return journal.Entry{}, err
	}
	e.Emotions = slices.Clone(e.Emotions)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		return journal.Entry{}, journal.ErrExists
	}
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) List(ctx context.Context, userID string, opts journal.ListOptions) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]journal.Entry, 0)
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if !opts.Since.IsZero() && e.CreatedAt.Before(opts.Since) {
			continue
		}
		e.Emotions = slices.Clone(e.Emotions)
		out = append(out, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b journal.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, userID string, id uuid.UUID) (journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return journal.Entry{}, journal.ErrNotFound
	}
	e.Emotions = slices.Clone(e.Emotions)
	return e, nil
}

func (s *Store) Delete(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return journal.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) Close() error { return nil }

// Package memory provides the in-process cache index.
package memory

import (
	"context"
	"sync"

	"goa.design/accessors/cache/index"
)

// Store is an in-memory index.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]index.Entry
}

var _ index.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]index.Entry)}
}

// Save records a copy of e.
func (s *Store) Save(ctx context.Context, e *index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Identity] = *e
	return nil
}

// Get returns a copy of the entry of identity.
func (s *Store) Get(ctx context.Context, identity string) (*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[identity]
	if !ok {
		return nil, index.ErrNotFound
	}
	return &e, nil
}

// Delete removes the entry of identity.
func (s *Store) Delete(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[identity]; !ok {
		return index.ErrNotFound
	}
	delete(s.entries, identity)
	return nil
}

// List returns copies of the entries of kind.
func (s *Store) List(ctx context.Context, kind string) ([]*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*index.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Matches(kind) {
			out = append(out, &e)
		}
	}
	index.SortEntries(out)
	return out, nil
}

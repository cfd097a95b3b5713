// Package replicated provides a cache index kept in a Pulse replicated map,
// so entries published by one process are visible to every process joined
// to the same map.
package replicated

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"goa.design/accessors/cache/index"
)

type (
	// Map is the subset of *rmap.Map from goa.design/pulse/rmap used by
	// the store.
	Map interface {
		Delete(ctx context.Context, key string) (string, error)
		Get(key string) (string, bool)
		Keys() []string
		Set(ctx context.Context, key, value string) (string, error)
	}

	// Store is an index.Store backed by a replicated map.
	Store struct {
		m Map
	}
)

const keyPrefix = "accessors:entry:"

var _ index.Store = (*Store)(nil)

// New returns a store backed by m.
func New(m Map) *Store {
	return &Store{m: m}
}

// Save records e as JSON.
func (s *Store) Save(ctx context.Context, e *index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry %q: %w", e.Identity, err)
	}
	if _, err := s.m.Set(ctx, keyPrefix+e.Identity, string(b)); err != nil {
		return fmt.Errorf("store entry %q: %w", e.Identity, err)
	}
	return nil
}

// Get returns the entry of identity.
func (s *Store) Get(ctx context.Context, identity string) (*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, ok := s.m.Get(keyPrefix + identity)
	if !ok {
		return nil, index.ErrNotFound
	}
	var e index.Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry %q: %w", identity, err)
	}
	return &e, nil
}

// Delete removes the entry of identity.
func (s *Store) Delete(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := keyPrefix + identity
	if _, ok := s.m.Get(key); !ok {
		return index.ErrNotFound
	}
	if _, err := s.m.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete entry %q: %w", identity, err)
	}
	return nil
}

// List returns the entries of kind sorted by identity.
func (s *Store) List(ctx context.Context, kind string) ([]*index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*index.Entry, 0)
	for _, k := range s.m.Keys() {
		identity, ok := strings.CutPrefix(k, keyPrefix)
		if !ok {
			continue
		}
		e, err := s.Get(ctx, identity)
		if err != nil {
			return nil, err
		}
		if e.Matches(kind) {
			out = append(out, e)
		}
	}
	index.SortEntries(out)
	return out, nil
}

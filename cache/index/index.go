// Package index defines the record of published accessor cache entries.
//
// Available implementations:
//
//   - memory: in-process index, the default
//   - mongo: MongoDB collection shared by every process using a workspace
//   - replicated: Pulse replicated map backed by Redis
//
// Implementations return ErrNotFound for unknown identities.
package index

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// ErrNotFound is returned when no entry has the requested identity.
var ErrNotFound = errors.New("cache entry not found")

type (
	// Entry describes one published generation.
	Entry struct {
		// Identity is the workspace key, "<fingerprint>-<kind>".
		Identity string `json:"identity" bson:"_id"`
		// Kind is "PS" for plugin spec accessors, "VC" for version catalog
		// accessors.
		Kind string `json:"kind" bson:"kind"`
		// Fingerprint is the scope hash the identity derives from.
		Fingerprint string `json:"fingerprint" bson:"fingerprint"`
		// Accessors is the number of generated properties.
		Accessors int `json:"accessors" bson:"accessors"`
		// SourcesDir and ClassesDir locate the published outputs.
		SourcesDir string `json:"sources_dir" bson:"sources_dir"`
		ClassesDir string `json:"classes_dir" bson:"classes_dir"`
		// PublishedAt is the publication time, in UTC.
		PublishedAt time.Time `json:"published_at" bson:"published_at"`
	}

	// Store persists cache entries. Implementations must be safe for
	// concurrent use.
	Store interface {
		// Save records e, replacing any entry with the same identity.
		Save(ctx context.Context, e *Entry) error
		// Get returns the entry of identity or ErrNotFound.
		Get(ctx context.Context, identity string) (*Entry, error)
		// Delete removes the entry of identity or returns ErrNotFound.
		Delete(ctx context.Context, identity string) error
		// List returns the entries of the given kind, all entries when kind
		// is empty, sorted by identity.
		List(ctx context.Context, kind string) ([]*Entry, error)
	}
)

// Matches reports whether e is selected by the kind filter.
func (e *Entry) Matches(kind string) bool {
	return kind == "" || e.Kind == kind
}

// SortEntries sorts entries by identity.
func SortEntries(entries []*Entry) {
	slices.SortFunc(entries, func(a, b *Entry) int { return strings.Compare(a.Identity, b.Identity) })
}

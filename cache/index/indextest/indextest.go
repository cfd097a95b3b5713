// Package indextest checks index.Store implementations against the
// behavior the cache relies on.
package indextest

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/cache/index"
)

// Entry returns a test entry of the given fingerprint and kind. Times are
// truncated to milliseconds, the precision of every backend.
func Entry(fingerprint, kind string) *index.Entry {
	identity := fingerprint + "-" + kind
	return &index.Entry{
		Identity:    identity,
		Kind:        kind,
		Fingerprint: fingerprint,
		Accessors:   len(fingerprint),
		SourcesDir:  "/ws/" + identity + "/sources",
		ClassesDir:  "/ws/" + identity + "/classes",
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	}
}

// Run exercises the store returned by newStore. Each call of newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) index.Store) {
	t.Run("SaveGetDelete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		e := Entry("abc", "PS")

		require.NoError(t, s.Save(ctx, e))
		got, err := s.Get(ctx, e.Identity)
		require.NoError(t, err)
		assertEntry(t, e, got)

		require.NoError(t, s.Delete(ctx, e.Identity))
		_, err = s.Get(ctx, e.Identity)
		assert.ErrorIs(t, err, index.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, e.Identity), index.ErrNotFound)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		e := Entry("abc", "VC")
		require.NoError(t, s.Save(ctx, e))
		updated := *e
		updated.Accessors = 42
		require.NoError(t, s.Save(ctx, &updated))

		got, err := s.Get(ctx, e.Identity)
		require.NoError(t, err)
		assert.Equal(t, 42, got.Accessors)
		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ListByKind", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, e := range []*index.Entry{Entry("b", "PS"), Entry("a", "VC"), Entry("a", "PS")} {
			require.NoError(t, s.Save(ctx, e))
		}
		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a-PS", "a-VC", "b-PS"}, identities(all))

		ps, err := s.List(ctx, "PS")
		require.NoError(t, err)
		assert.Equal(t, []string{"a-PS", "b-PS"}, identities(ps))

		none, err := s.List(ctx, "XX")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("RoundTripProperty", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		parameters := gopter.DefaultTestParameters()
		parameters.MinSuccessfulTests = 50
		properties := gopter.NewProperties(parameters)
		properties.Property("save then get returns the entry", prop.ForAll(
			func(fingerprint string, catalog bool, n int) bool {
				kind := "PS"
				if catalog {
					kind = "VC"
				}
				e := Entry(fingerprint, kind)
				e.Accessors = n
				if err := s.Save(ctx, e); err != nil {
					return false
				}
				got, err := s.Get(ctx, e.Identity)
				if err != nil {
					return false
				}
				return reflect.DeepEqual(normalize(e), normalize(got))
			},
			gen.Identifier(),
			gen.Bool(),
			gen.IntRange(0, 10000),
		))
		properties.TestingRun(t)
	})
}

func assertEntry(t *testing.T, want, got *index.Entry) {
	t.Helper()
	assert.Equal(t, normalize(want), normalize(got), fmt.Sprintf("entry %s", want.Identity))
}

func normalize(e *index.Entry) index.Entry {
	out := *e
	out.PublishedAt = out.PublishedAt.UTC()
	return out
}

func identities(entries []*index.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Identity
	}
	return out
}

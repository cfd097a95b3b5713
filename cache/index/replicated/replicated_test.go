package replicated

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/cache/index"
	"goa.design/accessors/cache/index/indextest"
)

type fakeMap struct {
	mu      sync.RWMutex
	content map[string]string
}

var _ Map = (*fakeMap)(nil)

func newFakeMap() *fakeMap {
	return &fakeMap{content: make(map[string]string)}
}

func (m *fakeMap) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.content))
	for k := range m.content {
		out = append(out, k)
	}
	return out
}

func (m *fakeMap) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.content[key]
	return v, ok
}

func (m *fakeMap) Set(ctx context.Context, key, value string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.content[key]
	m.content[key] = value
	return prev, nil
}

func (m *fakeMap) Delete(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.content[key]
	delete(m.content, key)
	return prev, nil
}

func TestStore(t *testing.T) {
	indextest.Run(t, func(*testing.T) index.Store { return New(newFakeMap()) })
}

func TestStore_IgnoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	m := newFakeMap()
	_, err := m.Set(ctx, "other:key", "{}")
	require.NoError(t, err)
	s := New(m)
	require.NoError(t, s.Save(ctx, indextest.Entry("abc", "VC")))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "abc-VC", all[0].Identity)
	_, ok := m.Get("accessors:entry:abc-VC")
	assert.True(t, ok)
}

func TestStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	m := newFakeMap()
	_, err := m.Set(ctx, "accessors:entry:bad-PS", "not json")
	require.NoError(t, err)
	_, err = New(m).Get(ctx, "bad-PS")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, index.ErrNotFound)
}

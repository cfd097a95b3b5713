package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/cache/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPublishThenLoad(t *testing.T) {
	ctx := context.Background()
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	_, ok, err := ws.Load(ctx, "abc-PS")
	require.NoError(t, err)
	assert.False(t, ok)

	slot, err := ws.Publish(ctx, "abc-PS", func(dir string) error {
		writeFile(t, filepath.Join(dir, "sources", "a.kt"), "x")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ws.Slot("abc-PS"), slot)

	got, ok, err := ws.Load(ctx, "abc-PS")
	require.NoError(t, err)
	require.True(t, ok)
	data, err := os.ReadFile(filepath.Join(got, "sources", "a.kt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestPublishFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ws, err := workspace.New(root)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = ws.Publish(ctx, "abc-VC", func(dir string) error {
		writeFile(t, filepath.Join(dir, "partial"), "y")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := ws.Load(ctx, "abc-VC")
	require.NoError(t, err)
	assert.False(t, ok)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishKeepsExistingSlot(t *testing.T) {
	ctx := context.Background()
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	_, err = ws.Publish(ctx, "abc-PS", func(dir string) error {
		writeFile(t, filepath.Join(dir, "winner"), "1")
		return nil
	})
	require.NoError(t, err)
	_, err = ws.Publish(ctx, "abc-PS", func(dir string) error {
		writeFile(t, filepath.Join(dir, "winner"), "2")
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ws.Slot("abc-PS"), "winner"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestLoadRejectsFile(t *testing.T) {
	root := t.TempDir()
	ws, err := workspace.New(root)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "abc-PS"), "not a dir")

	_, _, err = ws.Load(context.Background(), "abc-PS")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	_, err = ws.Publish(ctx, "abc-PS", func(string) error { return nil })
	require.NoError(t, err)

	require.NoError(t, ws.Remove("abc-PS"))
	require.NoError(t, ws.Remove("abc-PS"))
	_, ok, err := ws.Load(ctx, "abc-PS")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := workspace.New("")
	assert.Error(t, err)
}

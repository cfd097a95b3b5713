// Package workspace stores generated accessor trees on disk, one immutable
// slot per cache identity.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const tmpPrefix = ".tmp-"

// FS is a directory of published slots. A slot becomes visible only once
// its content is complete.
type FS struct {
	root string
}

// New returns a workspace rooted at root, creating the directory if needed.
func New(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("workspace root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (w *FS) Root() string { return w.root }

// Slot returns the directory of identity whether or not it is published.
func (w *FS) Slot(identity string) string {
	return filepath.Join(w.root, identity)
}

// Load reports whether identity is published and returns its directory.
func (w *FS) Load(ctx context.Context, identity string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	slot := w.Slot(identity)
	info, err := os.Stat(slot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat slot %s: %w", identity, err)
	case !info.IsDir():
		return "", false, fmt.Errorf("slot %s is not a directory", identity)
	}
	return slot, true, nil
}

// Publish fills a fresh temporary directory and renames it to the slot of
// identity. When fill fails the temporary directory is removed and nothing
// is published. When another publisher won the race the existing slot is
// kept and returned.
func (w *FS) Publish(ctx context.Context, identity string, fill func(dir string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp := filepath.Join(w.root, tmpPrefix+uuid.NewString())
	if err := os.Mkdir(tmp, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	if err := fill(tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	if err := ctx.Err(); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	slot := w.Slot(identity)
	if err := os.Rename(tmp, slot); err != nil {
		_ = os.RemoveAll(tmp)
		if _, ok, lerr := w.Load(ctx, identity); lerr == nil && ok {
			return slot, nil
		}
		return "", fmt.Errorf("publish slot %s: %w", identity, err)
	}
	return slot, nil
}

// Remove deletes the slot of identity. Removing a missing slot is not an
// error.
func (w *FS) Remove(identity string) error {
	if err := os.RemoveAll(w.Slot(identity)); err != nil {
		return fmt.Errorf("remove slot %s: %w", identity, err)
	}
	return nil
}

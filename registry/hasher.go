package registry

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ScopeHasher fingerprints a scope by hashing the path and content of every
// file it contains. Directories are walked in lexical order.
type ScopeHasher struct{}

// NewScopeHasher returns the default scope fingerprinter.
func NewScopeHasher() *ScopeHasher { return &ScopeHasher{} }

// Fingerprint returns the lowercase hex SHA-256 of the scope. Scope order
// is significant.
func (ScopeHasher) Fingerprint(ctx context.Context, scope []string) (string, error) {
	h := sha256.New()
	for _, root := range scope {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return hashFile(h, path)
		})
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", root, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashFile writes the length-prefixed path and content of a file so that
// boundaries between entries are unambiguous.
func hashFile(h hash.Hash, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	writeString(h, filepath.ToSlash(path))
	_ = binary.Write(h, binary.BigEndian, info.Size())
	_, err = io.Copy(h, f)
	return err
}

func writeString(h hash.Hash, s string) {
	_ = binary.Write(h, binary.BigEndian, int64(len(s)))
	_, _ = io.WriteString(h, s)
}

// Package testhelpers provides shared test utilities for codegen packages.
package testhelpers

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/accessors/codegen/ir"
)

var update = flag.Bool("update", false, "regenerate golden files instead of comparing")

// AssertGolden compares content with the golden file at
// testdata/golden/<scenario>/<name>.
func AssertGolden(t *testing.T, scenario, name, content string) {
	t.Helper()
	p := filepath.Join("testdata", "golden", scenario, name)
	if *update {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return
	}
	want, err := os.ReadFile(p)
	require.NoErrorf(t, err, "read golden %s (run with -update to create it)", p)
	require.Equal(t, string(want), content, "golden mismatch for %s", p)
}

// Specs builds plugin specs for ids, deriving a qualified implementation
// class from each id.
func Specs(ids ...string) []ir.PluginSpec {
	out := make([]ir.PluginSpec, len(ids))
	for i, id := range ids {
		out[i] = ir.PluginSpec{ID: id, ImplementationClass: "impl." + strings.ReplaceAll(id, ".", "_")}
	}
	return out
}

// ReadTree returns the content of every regular file under dir keyed by its
// slash-separated relative path.
func ReadTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = content
		return nil
	})
	require.NoError(t, err)
	return files
}

package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"goa.design/accessors/codegen/ir"
)

// ErrInvalidRegistry is returned when a registry file does not match the
// registry schema.
var ErrInvalidRegistry = errors.New("invalid registry")

type (
	// Snapshot is the resolved, ordered input of one generation.
	Snapshot struct {
		// Scope lists the files the snapshot was read from. Their content
		// fingerprints the snapshot.
		Scope []string
		// Plugins are the plugin ids in resolution order.
		Plugins []ir.PluginSpec
		// Catalogs are the version catalog extensions in declaration order.
		Catalogs []ir.CatalogEntry
	}

	registryFile struct {
		Plugins  []ir.PluginSpec   `yaml:"plugins"`
		Catalogs []ir.CatalogEntry `yaml:"catalogs"`
		Scope    []string          `yaml:"scope,omitempty"`
	}
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Load reads and validates the registry file at path. The scope of the
// snapshot is the file itself followed by its scope entries, resolved
// relative to the file directory.
func Load(path string) (*Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve registry path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scope := make([]string, 0, len(snap.Scope)+1)
	scope = append(scope, abs)
	for _, s := range snap.Scope {
		if !filepath.IsAbs(s) {
			s = filepath.Join(filepath.Dir(abs), s)
		}
		scope = append(scope, filepath.Clean(s))
	}
	snap.Scope = scope
	return snap, nil
}

// Parse decodes and validates registry content. Scope entries are returned
// as written.
func Parse(data []byte) (*Snapshot, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	if doc == nil {
		return &Snapshot{}, nil
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	var f registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	return &Snapshot{Scope: f.Scope, Plugins: f.Plugins, Catalogs: f.Catalogs}, nil
}

// Marshal encodes the snapshot in the registry file format. Scope entries
// are written as is.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(registryFile{Plugins: s.Plugins, Catalogs: s.Catalogs, Scope: s.Scope})
}

func validate(doc any) error {
	schemaOnce.Do(func() {
		var schemaDoc any
		if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
			schemaErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema.json", schemaDoc); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile("schema.json")
	})
	if schemaErr != nil {
		return schemaErr
	}
	return schema.Validate(doc)
}

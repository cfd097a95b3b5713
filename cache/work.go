package cache

import (
	"errors"

	"goa.design/accessors/codegen"
	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/kotlin"
	"goa.design/accessors/registry"
)

// Kind identifies the accessor flavor of a generation. It is the suffix of
// the cache identity.
type Kind string

const (
	// KindPluginSpecs generates plugin id accessors.
	KindPluginSpecs Kind = "PS"
	// KindVersionCatalogs generates version catalog accessors.
	KindVersionCatalogs Kind = "VC"
)

var errMissingSnapshot = errors.New("work has no registry snapshot")

type (
	// Work is one unit of generation. The set of implementations is
	// closed: PluginSpecsWork and VersionCatalogWork.
	Work interface {
		// Kind returns the identity suffix of the work.
		Kind() Kind
		// Scope returns the files fingerprinting the work.
		Scope() []string
		// empty reports whether there is nothing to generate.
		empty() bool
		// emit writes the accessors under srcDir and binDir and returns
		// how many were generated.
		emit(srcDir, binDir string, opts []codegen.Option) (int, error)
	}

	// PluginSpecsWork generates the plugin accessors of a snapshot.
	PluginSpecsWork struct {
		Snapshot *registry.Snapshot
	}

	// VersionCatalogWork generates the catalog accessors of a snapshot.
	VersionCatalogWork struct {
		Snapshot *registry.Snapshot
	}
)

// Kind returns KindPluginSpecs.
func (PluginSpecsWork) Kind() Kind { return KindPluginSpecs }

// Scope returns the snapshot scope.
func (w PluginSpecsWork) Scope() []string { return scopeOf(w.Snapshot) }

// An empty registry still yields header-only plugin accessors.
func (PluginSpecsWork) empty() bool { return false }

func (w PluginSpecsWork) emit(srcDir, binDir string, opts []codegen.Option) (int, error) {
	if w.Snapshot == nil {
		return 0, errMissingSnapshot
	}
	accessors := ir.PluginAccessorsFor(w.Snapshot.Plugins)
	return len(accessors), codegen.EmitPluginAccessors(accessors, srcDir, binDir, opts...)
}

// Kind returns KindVersionCatalogs.
func (VersionCatalogWork) Kind() Kind { return KindVersionCatalogs }

// Scope returns the snapshot scope.
func (w VersionCatalogWork) Scope() []string { return scopeOf(w.Snapshot) }

// Catalog accessors are skipped when the snapshot declares no catalog.
func (w VersionCatalogWork) empty() bool {
	return w.Snapshot != nil && len(w.Snapshot.Catalogs) == 0
}

func (w VersionCatalogWork) emit(srcDir, binDir string, opts []codegen.Option) (int, error) {
	if w.Snapshot == nil {
		return 0, errMissingSnapshot
	}
	catalogs := ir.CatalogAccessors(w.Snapshot.Catalogs)
	// Each catalog entry yields one property per consuming scope.
	return 2 * len(catalogs), codegen.EmitCatalogAccessors(catalogs, srcDir, binDir, opts...)
}

// Identity returns the workspace key of a fingerprint, kind and source
// format: "<fingerprint>-<kind>" for the default format and
// "<fingerprint>-<kind>-<format>" otherwise.
func Identity(fingerprint string, kind Kind, format kotlin.Format) string {
	id := fingerprint + "-" + string(kind)
	if format != kotlin.Default {
		id += "-" + format.String()
	}
	return id
}

func scopeOf(s *registry.Snapshot) []string {
	if s == nil {
		return nil
	}
	return s.Scope
}

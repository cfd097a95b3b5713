package codegen

import (
	"errors"
	"fmt"

	"goa.design/accessors/codegen/binary"
	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/kotlin"
)

// Target identifies one of the two emitted artifacts.
type Target string

const (
	// TargetSource is the Kotlin source artifact.
	TargetSource Target = "source"
	// TargetBinary is the JVM class file artifact.
	TargetBinary Target = "binary"
)

type (
	// RenderError reports an accessor that could not be emitted.
	RenderError struct {
		// Path is the dotted id or catalog name of the accessor, empty when
		// the failure is not tied to one accessor.
		Path string
		// Target is the artifact being emitted.
		Target Target
		// Err is the underlying error.
		Err error
	}

	// Option configures emission.
	Option func(*options)

	options struct {
		format kotlin.Format
	}
)

// Error implements error.
func (e *RenderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("render %s accessor %q: %v", e.Target, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Err }

// WithFormat sets the visibility of source declarations. Class files are
// always public.
func WithFormat(f kotlin.Format) Option {
	return func(o *options) { o.format = f }
}

// EmitPluginAccessors writes the plugin accessors as source under srcDir
// and as class files under binDir. Directories are created as needed. Both
// targets are encoded before anything is written, so a RenderError leaves
// both directories untouched.
func EmitPluginAccessors(accessors []ir.Accessor, srcDir, binDir string, opts ...Option) error {
	o := newOptions(opts)
	f, err := kotlin.PluginAccessorsFile(accessors, kotlin.Options{PackageName: ir.DSLPackageName, Format: o.format})
	if err != nil {
		return renderError(TargetSource, err)
	}
	classes, err := binary.BuildPlugins(accessors)
	if err != nil {
		return renderError(TargetBinary, err)
	}
	if _, err := kotlin.WriteFile(srcDir, f); err != nil {
		return fmt.Errorf("emit plugin accessor sources: %w", err)
	}
	if err := classes.Write(binDir); err != nil {
		return renderError(TargetBinary, err)
	}
	return nil
}

// EmitCatalogAccessors writes the version catalog accessors as source under
// srcDir and as class files under binDir.
func EmitCatalogAccessors(catalogs []ir.CatalogAccessor, srcDir, binDir string, opts ...Option) error {
	o := newOptions(opts)
	f, err := kotlin.CatalogAccessorsFile(catalogs, kotlin.Options{PackageName: ir.DSLPackageName, Format: o.format})
	if err != nil {
		return renderError(TargetSource, err)
	}
	classes, err := binary.BuildCatalogs(catalogs)
	if err != nil {
		return renderError(TargetBinary, err)
	}
	if _, err := kotlin.WriteFile(srcDir, f); err != nil {
		return fmt.Errorf("emit catalog accessor sources: %w", err)
	}
	if err := classes.Write(binDir); err != nil {
		return renderError(TargetBinary, err)
	}
	return nil
}

// SourceFile returns the slash-separated path of the source file named
// baseName, relative to the sources directory.
func SourceFile(baseName string) string {
	return ir.DSLPackagePath + "/" + baseName + ".kt"
}

func newOptions(opts []Option) *options {
	o := &options{format: kotlin.Default}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// renderError attaches the accessor path to naming failures. Other
// failures, I/O included, are returned wrapped with the target.
func renderError(target Target, err error) error {
	var invalid *ir.InvalidAccessorError
	if errors.As(err, &invalid) {
		return &RenderError{Path: invalid.Path, Target: target, Err: invalid.Err}
	}
	return fmt.Errorf("emit %s: %w", target, err)
}

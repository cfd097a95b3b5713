package kotlin

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"goa.design/goa/v3/codegen"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/naming"
)

// ErrDuplicateDeclaration is returned when two accessors declare the same
// extension property.
var ErrDuplicateDeclaration = errors.New("duplicate declaration")

// Format selects the visibility of generated declarations.
type Format int

const (
	// Default emits public declarations.
	Default Format = iota
	// Internal emits internal declarations, used for sources compiled
	// together with precompiled script plugins.
	Internal
)

const (
	// PluginAccessorsBaseName is the base name of the plugin accessors file.
	PluginAccessorsBaseName = "PluginAccessors"
	// CatalogAccessorsBaseName is the base name of the catalog accessors file.
	CatalogAccessorsBaseName = "VersionCatalogPluginAccessors"
	// pluginsFieldName is the field of group types holding the plugins spec.
	pluginsFieldName = "plugins"
)

type (
	// Options configures source rendering.
	Options struct {
		// PackageName is the package declared by the file.
		PackageName string
		// Format selects declaration visibility.
		Format Format
	}

	headerData struct {
		PackageName string
	}

	importsData struct {
		Imports []string
	}

	pluginData struct {
		Modifier       string
		ID             string
		Implementation string
		Receiver       string
		Name           string
		PluginsRef     string
	}

	groupData struct {
		Modifier   string
		ID         string
		GroupType  string
		Receiver   string
		Name       string
		PluginsRef string
	}

	catalogData struct {
		Modifier         string
		Name             string
		Receiver         string
		InternalReceiver string
		ReturnType       string
	}
)

// DefaultOptions returns the options used for cached accessor sources.
func DefaultOptions() Options {
	return Options{PackageName: ir.DSLPackageName, Format: Default}
}

// PluginAccessorsFile returns the source file declaring the plugin accessors.
// It fails on the first accessor with invalid names.
func PluginAccessorsFile(accessors []ir.Accessor, opts Options) (*codegen.File, error) {
	sections := []*codegen.SectionTemplate{
		header(opts),
		{
			Name:   "plugin-imports",
			Source: kotlinTemplates.Read(importsT),
			Data:   importsData{Imports: pluginImports(accessors)},
		},
	}
	modifier := opts.Format.modifier()
	declared := make(declarations, len(accessors))
	for _, a := range accessors {
		if err := ir.ValidateAccessor(a); err != nil {
			return nil, err
		}
		ext := a.Extension()
		if err := declared.add(ext, a.Path()); err != nil {
			return nil, err
		}
		receiver := ext.ReceiverType.SourceName
		switch a := a.(type) {
		case *ir.ForPlugin:
			sections = append(sections, &codegen.SectionTemplate{
				Name:   "plugin-accessor",
				Source: kotlinTemplates.Read(pluginT),
				Data: pluginData{
					Modifier:       modifier,
					ID:             a.ID,
					Implementation: naming.SourceNameOfBinaryName(a.ImplementationClass),
					Receiver:       receiver,
					Name:           ext.Name,
					PluginsRef:     pluginsRefOf(ext.ReceiverType),
				},
			})
		case *ir.ForGroup:
			sections = append(sections, &codegen.SectionTemplate{
				Name:   "group-accessor",
				Source: kotlinTemplates.Read(groupT),
				Data: groupData{
					Modifier:   modifier,
					ID:         a.ID,
					GroupType:  ext.ReturnType.SourceName,
					Receiver:   receiver,
					Name:       ext.Name,
					PluginsRef: pluginsRefOf(ext.ReceiverType),
				},
			})
		default:
			return nil, fmt.Errorf("unsupported accessor %T", a)
		}
	}
	return &codegen.File{
		Path:             sourcePath(opts.PackageName, PluginAccessorsBaseName),
		SectionTemplates: sections,
	}, nil
}

// CatalogAccessorsFile returns the source file declaring the version catalog
// accessors, the buildscript accessor of each catalog first.
func CatalogAccessorsFile(catalogs []ir.CatalogAccessor, opts Options) (*codegen.File, error) {
	sections := []*codegen.SectionTemplate{
		header(opts),
		{
			Name:   "catalog-imports",
			Source: kotlinTemplates.Read(importsT),
			Data:   importsData{Imports: catalogImports(catalogs)},
		},
	}
	modifier := opts.Format.modifier()
	declared := make(declarations, 2*len(catalogs))
	for _, c := range catalogs {
		if err := ir.ValidateCatalog(c); err != nil {
			return nil, err
		}
		for _, ext := range []ir.ExtensionSpec{c.BuildscriptExtension, c.PluginsExtension} {
			if err := declared.add(ext, c.Name); err != nil {
				return nil, err
			}
		}
		for _, scope := range []struct {
			ext      ir.ExtensionSpec
			internal ir.TypeSpec
		}{
			{c.BuildscriptExtension, ir.ScriptHandlerScopeInternalType},
			{c.PluginsExtension, ir.PluginDependenciesSpecScopeInternalType},
		} {
			sections = append(sections, &codegen.SectionTemplate{
				Name:   "catalog-accessor",
				Source: kotlinTemplates.Read(catalogT),
				Data: catalogData{
					Modifier:         modifier,
					Name:             scope.ext.Name,
					Receiver:         scope.ext.ReceiverType.SourceName,
					InternalReceiver: scope.internal.SourceName,
					ReturnType:       scope.ext.ReturnType.SourceName,
				},
			})
		}
	}
	return &codegen.File{
		Path:             sourcePath(opts.PackageName, CatalogAccessorsBaseName),
		SectionTemplates: sections,
	}, nil
}

// Render executes the file sections in order and returns the content.
func Render(f *codegen.File) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range f.SectionTemplates {
		if err := s.Write(&buf); err != nil {
			return nil, fmt.Errorf("render section %s: %w", s.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// WriteFile renders f under dir, creating parent directories as needed, and
// returns the written path.
func WriteFile(dir string, f *codegen.File) (string, error) {
	path, err := f.Render(dir)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	return path, nil
}

// WritePluginSpecBuilders writes the plugin accessors of specs to file as
// internal declarations of packageName. The file is written as is, without
// any binary counterpart.
func WritePluginSpecBuilders(specs []ir.PluginSpec, file, packageName string) error {
	f, err := PluginAccessorsFile(ir.PluginAccessorsFor(specs), Options{PackageName: packageName, Format: Internal})
	if err != nil {
		return err
	}
	f.Path = filepath.Base(file)
	if _, err := WriteFile(filepath.Dir(file), f); err != nil {
		return fmt.Errorf("write plugin spec builders: %w", err)
	}
	return nil
}

// declarations maps each declared property to the accessor declaring it.
type declarations map[string]string

// add records ext as declared by the accessor at path.
func (d declarations) add(ext ir.ExtensionSpec, path string) error {
	key := ext.Name + "\x00" + ext.ReceiverType.SourceName + "\x00" + ext.ReturnType.SourceName
	if prev, ok := d[key]; ok {
		return &ir.InvalidAccessorError{
			Path: path,
			Err:  fmt.Errorf("%w: %s.%s is already declared by %q", ErrDuplicateDeclaration, ext.ReceiverType.SourceName, ext.Name, prev),
		}
	}
	d[key] = path
	return nil
}

func header(opts Options) *codegen.SectionTemplate {
	return &codegen.SectionTemplate{
		Name:   "source-header",
		Source: kotlinTemplates.Read(headerT),
		Data:   headerData{PackageName: opts.PackageName},
	}
}

// String returns "default" or "internal".
func (f Format) String() string {
	if f == Internal {
		return "internal"
	}
	return "default"
}

func (f Format) modifier() string {
	if f == Internal {
		return "internal "
	}
	return ""
}

// pluginsRefOf returns the expression yielding the plugins spec inside a
// getter extending receiver.
func pluginsRefOf(receiver ir.TypeSpec) string {
	if receiver == ir.PluginDependenciesSpecType {
		return "this"
	}
	return pluginsFieldName
}

// pluginImports lists the fixed imports followed by implementation classes
// of the default package, which cannot be referenced without an import.
func pluginImports(accessors []ir.Accessor) []string {
	imports := []string{
		ir.PluginDependenciesSpecType.QualifiedName(),
		ir.PluginDependencySpecType.QualifiedName(),
	}
	var defaults []string
	for _, a := range accessors {
		p, ok := a.(*ir.ForPlugin)
		if !ok {
			continue
		}
		name := naming.SourceNameOfBinaryName(p.ImplementationClass)
		if name != "" && !strings.Contains(name, ".") {
			defaults = append(defaults, name)
		}
	}
	slices.Sort(defaults)
	return append(imports, slices.Compact(defaults)...)
}

// catalogImports lists the scope types followed by the public types of the
// catalogs in declaration order.
func catalogImports(catalogs []ir.CatalogAccessor) []string {
	imports := []string{
		ir.ScriptHandlerScopeType.QualifiedName(),
		ir.PluginDependenciesSpecScopeType.QualifiedName(),
		ir.ScriptHandlerScopeInternalType.QualifiedName(),
		ir.PluginDependenciesSpecScopeInternalType.QualifiedName(),
	}
	seen := make(map[string]struct{}, len(imports)+len(catalogs))
	for _, i := range imports {
		seen[i] = struct{}{}
	}
	for _, c := range catalogs {
		name := c.PublicType.Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		imports = append(imports, name)
	}
	return imports
}

func sourcePath(packageName, baseName string) string {
	return filepath.ToSlash(filepath.Join(strings.ReplaceAll(packageName, ".", "/"), baseName+".kt"))
}

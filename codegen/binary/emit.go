package binary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/jvm"
	"goa.design/accessors/codegen/kmeta"
	"goa.design/accessors/codegen/naming"
)

const (
	// PluginSpecModuleName names the module of plugin accessors.
	PluginSpecModuleName = "kotlin-dsl-plugin-spec-accessors"
	// CatalogModuleName names the module of version catalog accessors.
	CatalogModuleName = "kotlin-dsl-version-catalog-accessors"

	// PluginAccessorsFacade is the internal name of the plugin accessors
	// file facade.
	PluginAccessorsFacade = ir.DSLPackagePath + "/PluginAccessorsKt"
	// CatalogAccessorsFacade is the internal name of the catalog accessors
	// file facade.
	CatalogAccessorsFacade = ir.DSLPackagePath + "/VersionCatalogPluginAccessorsKt"

	metadataDesc         = "Lkotlin/Metadata;"
	pluginsField         = "plugins"
	stringType           = "java/lang/String"
	versionCatalogGetter = "versionCatalogExtension"

	getterAccess = jvm.AccPublic | jvm.AccStatic | jvm.AccFinal
)

// ErrDuplicateGetter is returned when two accessors map to the same static
// getter of a facade, for instance ids differing only by the case of their
// first letter.
var ErrDuplicateGetter = errors.New("duplicate getter")

type (
	// Artifacts are the encoded files of one accessor module.
	Artifacts struct {
		// ModuleName names the module file.
		ModuleName string
		// Module is the encoded module file.
		Module []byte
		// Classes are the encoded class files, facade first.
		Classes []Class
	}

	// Class is an encoded class file.
	Class struct {
		// InternalName is the JVM internal name of the class.
		InternalName string
		// Bytes is the class file content.
		Bytes []byte
	}

	// getters tracks the static getters declared on a facade.
	getters map[string]string
)

// EmitPlugins writes the class files and module file of the plugin
// accessors under binDir.
func EmitPlugins(accessors []ir.Accessor, binDir string) error {
	a, err := BuildPlugins(accessors)
	if err != nil {
		return err
	}
	return a.Write(binDir)
}

// EmitCatalogs writes the class files and module file of the version
// catalog accessors under binDir.
func EmitCatalogs(catalogs []ir.CatalogAccessor, binDir string) error {
	a, err := BuildCatalogs(catalogs)
	if err != nil {
		return err
	}
	return a.Write(binDir)
}

// BuildPlugins encodes the plugin accessors without writing anything. Name
// failures are reported as *ir.InvalidAccessorError.
func BuildPlugins(accessors []ir.Accessor) (*Artifacts, error) {
	facade := jvm.NewClass(jvm.AccPublic|jvm.AccFinal|jvm.AccSynthetic, PluginAccessorsFacade, jvm.ObjectInternalName)
	meta := &kmeta.FileFacade{ModuleName: PluginSpecModuleName}
	declared := make(getters, len(accessors))
	for _, a := range accessors {
		if err := ir.ValidateAccessor(a); err != nil {
			return nil, err
		}
		ext := a.Extension()
		getter := getterOf(ext)
		if err := declared.add(getter, a.Path()); err != nil {
			return nil, err
		}
		switch a := a.(type) {
		case *ir.ForPlugin:
			facade.Method(getterAccess, getter.Name, getter.Desc, func(c *jvm.Code) {
				loadPlugins(c, ext.ReceiverType)
				c.Ldc(a.ID).
					Invokeinterface(ir.PluginDependenciesSpecType.InternalName, "id",
						jvm.MethodDescriptor(ir.PluginDependencySpecType.InternalName, stringType)).
					Areturn()
			})
		case *ir.ForGroup:
			group := ext.ReturnType.InternalName
			facade.Method(getterAccess, getter.Name, getter.Desc, func(c *jvm.Code) {
				c.New(group).Dup()
				loadPlugins(c, ext.ReceiverType)
				c.Invokespecial(group, "<init>", groupConstructorDesc).Areturn()
			})
		default:
			return nil, fmt.Errorf("unsupported accessor %T", a)
		}
		meta.Properties = append(meta.Properties, propertyOf(ext, getter))
	}

	classes := []*jvm.ClassWriter{withMetadata(facade, meta)}
	for _, t := range ir.GroupTypes(accessors) {
		classes = append(classes, groupClass(t.InternalName))
	}
	return build(PluginSpecModuleName, PluginAccessorsFacade, classes)
}

// BuildCatalogs encodes the version catalog accessors without writing
// anything.
func BuildCatalogs(catalogs []ir.CatalogAccessor) (*Artifacts, error) {
	facade := jvm.NewClass(jvm.AccPublic|jvm.AccFinal|jvm.AccSynthetic, CatalogAccessorsFacade, jvm.ObjectInternalName)
	meta := &kmeta.FileFacade{ModuleName: CatalogModuleName}
	declared := make(getters, 2*len(catalogs))
	for _, cat := range catalogs {
		if err := ir.ValidateCatalog(cat); err != nil {
			return nil, err
		}
		for _, scope := range []struct {
			ext      ir.ExtensionSpec
			internal ir.TypeSpec
		}{
			{cat.BuildscriptExtension, ir.ScriptHandlerScopeInternalType},
			{cat.PluginsExtension, ir.PluginDependenciesSpecScopeInternalType},
		} {
			ext, internal := scope.ext, scope.internal.InternalName
			getter := getterOf(ext)
			if err := declared.add(getter, cat.Name); err != nil {
				return nil, err
			}
			facade.Method(getterAccess, getter.Name, getter.Desc, func(c *jvm.Code) {
				c.Aload(0).
					Checkcast(internal).
					Ldc(ext.Name).
					Invokevirtual(internal, versionCatalogGetter,
						jvm.MethodDescriptor(ir.ExternalModuleDependencyFactoryType.InternalName, stringType)).
					Checkcast(ext.ReturnType.InternalName).
					Areturn()
			})
			meta.Properties = append(meta.Properties, propertyOf(ext, getter))
		}
	}
	return build(CatalogModuleName, CatalogAccessorsFacade, []*jvm.ClassWriter{withMetadata(facade, meta)})
}

// Write writes the module file and class files under binDir.
func (a *Artifacts) Write(binDir string) error {
	if err := writeFile(ModuleFile(binDir, a.ModuleName), a.Module); err != nil {
		return err
	}
	for _, c := range a.Classes {
		if err := writeFile(ClassFile(binDir, c.InternalName), c.Bytes); err != nil {
			return err
		}
	}
	return nil
}

// add records the getter of the accessor at path.
func (g getters) add(getter kmeta.MethodSignature, path string) error {
	key := getter.Name + getter.Desc
	if prev, ok := g[key]; ok {
		return &ir.InvalidAccessorError{
			Path: path,
			Err:  fmt.Errorf("%w: %s%s is already declared by %q", ErrDuplicateGetter, getter.Name, getter.Desc, prev),
		}
	}
	g[key] = path
	return nil
}

var groupConstructorDesc = jvm.MethodDescriptor("", ir.PluginDependenciesSpecType.InternalName)

// loadPlugins pushes the plugins spec reachable from the getter receiver.
func loadPlugins(c *jvm.Code, receiver ir.TypeSpec) {
	c.Aload(0)
	if receiver != ir.PluginDependenciesSpecType {
		c.Getfield(receiver.InternalName, pluginsField, jvm.ObjectDescriptor(ir.PluginDependenciesSpecType.InternalName))
	}
}

func groupClass(name string) *jvm.ClassWriter {
	cw := jvm.NewClass(jvm.AccPublic|jvm.AccFinal, name, jvm.ObjectInternalName)
	fieldDesc := jvm.ObjectDescriptor(ir.PluginDependenciesSpecType.InternalName)
	cw.Field(jvm.AccFinal, pluginsField, fieldDesc)
	cw.Method(jvm.AccPublic, "<init>", groupConstructorDesc, func(c *jvm.Code) {
		c.Aload(0).Invokespecial(jvm.ObjectInternalName, "<init>", "()V")
		c.Aload(0).Aload(1).Putfield(name, pluginsField, fieldDesc)
		c.Return()
	})
	return cw
}

func getterOf(ext ir.ExtensionSpec) kmeta.MethodSignature {
	return kmeta.MethodSignature{
		Name: "get" + naming.UppercaseFirst(ext.Name),
		Desc: jvm.MethodDescriptor(ext.ReturnType.InternalName, ext.ReceiverType.InternalName),
	}
}

func propertyOf(ext ir.ExtensionSpec, getter kmeta.MethodSignature) kmeta.Property {
	return kmeta.Property{
		Name:         ext.Name,
		ReceiverType: ext.ReceiverType.InternalName,
		ReturnType:   ext.ReturnType.InternalName,
		Getter:       getter,
	}
}

func withMetadata(facade *jvm.ClassWriter, meta *kmeta.FileFacade) *jvm.ClassWriter {
	d1, d2 := meta.Encode()
	facade.Annotation(metadataDesc,
		jvm.Element{Name: "mv", Value: kmeta.MetadataVersion},
		jvm.Element{Name: "k", Value: int32(kmeta.KindFileFacade)},
		jvm.Element{Name: "d1", Value: d1},
		jvm.Element{Name: "d2", Value: d2},
	)
	return facade
}

// ModuleFile returns the path of the module file of moduleName under
// binDir.
func ModuleFile(binDir, moduleName string) string {
	return filepath.Join(binDir, "META-INF", moduleName+".kotlin_module")
}

// ClassFile returns the path of the class file of internalName under
// binDir.
func ClassFile(binDir, internalName string) string {
	return filepath.Join(binDir, filepath.FromSlash(internalName)+".class")
}

// build encodes classes. Format limit failures are attributed to the
// failing class so they surface as accessor errors.
func build(moduleName, facade string, classes []*jvm.ClassWriter) (*Artifacts, error) {
	a := &Artifacts{ModuleName: moduleName, Module: kmeta.ModuleFacades(facade).Bytes()}
	for _, cw := range classes {
		b, err := cw.Bytes()
		if err != nil {
			return nil, &ir.InvalidAccessorError{Path: naming.SourceNameOfBinaryName(strings.ReplaceAll(cw.Name(), "/", ".")), Err: err}
		}
		a.Classes = append(a.Classes, Class{InternalName: cw.Name(), Bytes: b})
	}
	return a, nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create class dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

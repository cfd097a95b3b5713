package ir

type (
	// PluginSpec is a plugin id together with the binary name of the class
	// implementing it, as supplied by the registry.
	PluginSpec struct {
		// ID is the dotted plugin id, e.g. "org.jetbrains.kotlin.jvm".
		ID string `json:"id" yaml:"id"`
		// ImplementationClass is the JVM binary name of the plugin class.
		ImplementationClass string `json:"implementationClass" yaml:"implementationClass"`
	}

	// TypeSpec names a type in both generated targets.
	TypeSpec struct {
		// SourceName is the name used in generated source.
		SourceName string `json:"source_name"`
		// InternalName is the JVM internal name used in class files.
		InternalName string `json:"internal_name"`
	}

	// ExtensionSpec declares that instances of ReceiverType expose a
	// property called Name of type ReturnType.
	ExtensionSpec struct {
		Name         string   `json:"name"`
		ReceiverType TypeSpec `json:"receiver_type"`
		ReturnType   TypeSpec `json:"return_type"`
	}

	// Accessor is one generated plugin accessor. The set of implementations
	// is closed: *ForPlugin and *ForGroup.
	Accessor interface {
		// Extension returns the property declared by the accessor.
		Extension() ExtensionSpec
		// Path returns the dotted id the accessor resolves to.
		Path() string
		accessor()
	}

	// ForPlugin is the accessor of a single plugin id.
	ForPlugin struct {
		ID                  string        `json:"id"`
		ImplementationClass string        `json:"implementation_class"`
		Spec                ExtensionSpec `json:"extension"`
	}

	// ForGroup is the accessor of a shared id prefix. It returns an
	// instance of a synthesized group type.
	ForGroup struct {
		ID   string        `json:"id"`
		Spec ExtensionSpec `json:"extension"`
	}

	// TypeRef references an existing type by its qualified source name and
	// JVM internal name.
	TypeRef struct {
		Name         string `json:"name" yaml:"publicType"`
		InternalName string `json:"internal_name" yaml:"internalName,omitempty"`
	}

	// CatalogEntry is a named version catalog extension.
	CatalogEntry struct {
		Name       string  `json:"name" yaml:"name"`
		PublicType TypeRef `json:"public_type" yaml:",inline"`
	}

	// CatalogAccessor holds the two accessors generated for one catalog, one
	// for the buildscript block and one for the plugins block.
	CatalogAccessor struct {
		Name                 string        `json:"name"`
		PublicType           TypeRef       `json:"public_type"`
		BuildscriptExtension ExtensionSpec `json:"buildscript_extension"`
		PluginsExtension     ExtensionSpec `json:"plugins_extension"`
	}

	// PropertySignature is the observable surface of a generated property:
	// its name and the qualified source names of its receiver and return
	// types.
	PropertySignature struct {
		Name     string `json:"name"`
		Receiver string `json:"receiver"`
		Return   string `json:"return"`
	}
)

// DSLPackagePath is the JVM package of generated types.
const DSLPackagePath = "org/gradle/kotlin/dsl"

// DSLPackageName is the source package of generated files.
const DSLPackageName = "org.gradle.kotlin.dsl"

// PluginGroupSuffix terminates every synthesized plugin group type name.
const PluginGroupSuffix = "PluginGroup"

var (
	// PluginDependenciesSpecType is the receiver of top-level plugin accessors.
	PluginDependenciesSpecType = TypeSpec{"PluginDependenciesSpec", "org/gradle/plugin/use/PluginDependenciesSpec"}
	// PluginDependencySpecType is returned by every plugin leaf accessor.
	PluginDependencySpecType = TypeSpec{"PluginDependencySpec", "org/gradle/plugin/use/PluginDependencySpec"}
	// ScriptHandlerScopeType receives catalog accessors in buildscript blocks.
	ScriptHandlerScopeType = TypeSpec{"ScriptHandlerScope", DSLPackagePath + "/ScriptHandlerScope"}
	// PluginDependenciesSpecScopeType receives catalog accessors in plugins blocks.
	PluginDependenciesSpecScopeType = TypeSpec{"PluginDependenciesSpecScope", DSLPackagePath + "/PluginDependenciesSpecScope"}
	// ScriptHandlerScopeInternalType exposes versionCatalogExtension.
	ScriptHandlerScopeInternalType = TypeSpec{"ScriptHandlerScopeInternal", DSLPackagePath + "/support/ScriptHandlerScopeInternal"}
	// PluginDependenciesSpecScopeInternalType exposes versionCatalogExtension.
	PluginDependenciesSpecScopeInternalType = TypeSpec{"PluginDependenciesSpecScopeInternal", DSLPackagePath + "/support/PluginDependenciesSpecScopeInternal"}
	// ExternalModuleDependencyFactoryType is the declared return type of
	// versionCatalogExtension.
	ExternalModuleDependencyFactoryType = TypeSpec{"ExternalModuleDependencyFactory", "org/gradle/api/internal/catalog/ExternalModuleDependencyFactory"}
)

// Extension returns the property declared by the accessor.
func (a *ForPlugin) Extension() ExtensionSpec { return a.Spec }

// Path returns the plugin id.
func (a *ForPlugin) Path() string { return a.ID }

// Extension returns the property declared by the accessor.
func (a *ForGroup) Extension() ExtensionSpec { return a.Spec }

// Path returns the group id.
func (a *ForGroup) Path() string { return a.ID }

func (*ForPlugin) accessor() {}
func (*ForGroup) accessor()  {}

// QualifiedName returns the fully-qualified source name of a type spec by
// converting its internal name.
func (t TypeSpec) QualifiedName() string {
	out := make([]byte, len(t.InternalName))
	for i := 0; i < len(t.InternalName); i++ {
		switch c := t.InternalName[i]; c {
		case '/', '$':
			out[i] = '.'
		default:
			out[i] = c
		}
	}
	return string(out)
}

// Signature returns the observable signature of the extension.
func (e ExtensionSpec) Signature() PropertySignature {
	return PropertySignature{
		Name:     e.Name,
		Receiver: e.ReceiverType.QualifiedName(),
		Return:   e.ReturnType.QualifiedName(),
	}
}

// Signatures returns the signatures of accessors in order.
func Signatures(accessors []Accessor) []PropertySignature {
	sigs := make([]PropertySignature, 0, len(accessors))
	for _, a := range accessors {
		sigs = append(sigs, a.Extension().Signature())
	}
	return sigs
}

// CatalogSignatures returns the signatures of catalog accessors in
// declaration order, the buildscript accessor of each catalog first.
func CatalogSignatures(catalogs []CatalogAccessor) []PropertySignature {
	sigs := make([]PropertySignature, 0, 2*len(catalogs))
	for _, c := range catalogs {
		sigs = append(sigs, c.BuildscriptExtension.Signature(), c.PluginsExtension.Signature())
	}
	return sigs
}

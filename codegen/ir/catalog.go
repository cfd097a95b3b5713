package ir

import "goa.design/accessors/codegen/naming"

// CatalogAccessors maps each catalog entry to its pair of accessors. Both
// return the entry's public type; they differ only by receiver.
func CatalogAccessors(entries []CatalogEntry) []CatalogAccessor {
	catalogs := make([]CatalogAccessor, 0, len(entries))
	for _, e := range entries {
		ret := e.PublicType.TypeSpec()
		catalogs = append(catalogs, CatalogAccessor{
			Name:                 e.Name,
			PublicType:           e.PublicType,
			BuildscriptExtension: ExtensionSpec{Name: e.Name, ReceiverType: ScriptHandlerScopeType, ReturnType: ret},
			PluginsExtension:     ExtensionSpec{Name: e.Name, ReceiverType: PluginDependenciesSpecScopeType, ReturnType: ret},
		})
	}
	return catalogs
}

// TypeSpec returns the spec of the referenced type. The internal name
// defaults to the qualified name with '/' separators.
func (r TypeRef) TypeSpec() TypeSpec {
	internal := r.InternalName
	if internal == "" {
		internal = naming.InternalNameOf(r.Name)
	}
	return TypeSpec{SourceName: naming.SimpleNameOf(r.Name), InternalName: internal}
}

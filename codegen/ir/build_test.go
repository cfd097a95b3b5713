package ir_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/codegen/ir"
)

func TestPluginAccessors_JavaScenario(t *testing.T) {
	accessors := ir.PluginAccessorsFor([]ir.PluginSpec{
		{ID: "java", ImplementationClass: "JavaImpl"},
		{ID: "java.library", ImplementationClass: "JavaLibraryImpl"},
	})
	require.Len(t, accessors, 3)

	leaf, ok := accessors[0].(*ir.ForPlugin)
	require.True(t, ok)
	assert.Equal(t, "java", leaf.ID)
	assert.Equal(t, "JavaImpl", leaf.ImplementationClass)
	assert.Equal(t, "java", leaf.Spec.Name)
	assert.Equal(t, ir.PluginDependenciesSpecType, leaf.Spec.ReceiverType)
	assert.Equal(t, ir.PluginDependencySpecType, leaf.Spec.ReturnType)

	group, ok := accessors[1].(*ir.ForGroup)
	require.True(t, ok)
	assert.Equal(t, "java", group.ID)
	assert.Equal(t, "java", group.Spec.Name)
	assert.Equal(t, ir.PluginDependenciesSpecType, group.Spec.ReceiverType)
	assert.Equal(t, ir.TypeSpec{SourceName: "JavaPluginGroup", InternalName: "org/gradle/kotlin/dsl/JavaPluginGroup"}, group.Spec.ReturnType)

	library, ok := accessors[2].(*ir.ForPlugin)
	require.True(t, ok)
	assert.Equal(t, "java.library", library.ID)
	assert.Equal(t, "library", library.Spec.Name)
	assert.Equal(t, "JavaPluginGroup", library.Spec.ReceiverType.SourceName)
	assert.Equal(t, ir.PluginDependencySpecType, library.Spec.ReturnType)
}

func TestPluginAccessors_LeafAndGroupPrefix(t *testing.T) {
	accessors := ir.PluginAccessorsFor(specs("com.example", "com.example.tools"))

	var paths []string
	for _, a := range accessors {
		switch a := a.(type) {
		case *ir.ForPlugin:
			paths = append(paths, "plugin:"+a.ID+"@"+a.Spec.ReceiverType.SourceName)
		case *ir.ForGroup:
			paths = append(paths, "group:"+a.ID+"->"+a.Spec.ReturnType.SourceName)
		}
	}
	assert.Equal(t, []string{
		"group:com->ComPluginGroup",
		"plugin:com.example@ComPluginGroup",
		"group:com.example->ComExamplePluginGroup",
		"plugin:com.example.tools@ComExamplePluginGroup",
	}, paths)
}

func TestPluginAccessors_GroupTypesUniqueProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("group return types are unique", prop.ForAll(
		func(ids []string) bool {
			accessors := ir.PluginAccessorsFor(specs(dedupe(ids)...))
			seen := make(map[string]string)
			for _, a := range accessors {
				g, ok := a.(*ir.ForGroup)
				if !ok {
					continue
				}
				if prev, dup := seen[g.Spec.ReturnType.InternalName]; dup && prev != g.ID {
					return false
				}
				seen[g.Spec.ReturnType.InternalName] = g.ID
			}
			return len(seen) == len(ir.GroupTypes(accessors))
		},
		gen.SliceOf(idGen()),
	))

	properties.Property("receivers are declared before use", prop.ForAll(
		func(ids []string) bool {
			declared := map[string]bool{ir.PluginDependenciesSpecType.InternalName: true}
			for _, a := range ir.PluginAccessorsFor(specs(dedupe(ids)...)) {
				if !declared[a.Extension().ReceiverType.InternalName] {
					return false
				}
				if g, ok := a.(*ir.ForGroup); ok {
					declared[g.Spec.ReturnType.InternalName] = true
				}
			}
			return true
		},
		gen.SliceOf(idGen()),
	))

	properties.TestingRun(t)
}

func TestPluginAccessors_AdversarialPrefixes(t *testing.T) {
	accessors := ir.PluginAccessorsFor(specs("a", "a.b", "a.bc", "ab", "ab.c", "a.b.c", "a.bC.d", "a.b.c.d"))
	types := ir.GroupTypes(accessors)
	names := make(map[string]struct{}, len(types))
	for _, ts := range types {
		names[ts.InternalName] = struct{}{}
	}
	assert.Len(t, names, len(types))
	assert.Len(t, types, 5) // a, a.b, ab, a.bC, a.b.c
}

func TestCatalogAccessors(t *testing.T) {
	catalogs := ir.CatalogAccessors([]ir.CatalogEntry{
		{Name: "libs", PublicType: ir.TypeRef{Name: "org.gradle.accessors.dm.LibrariesForLibs"}},
	})
	require.Len(t, catalogs, 1)
	c := catalogs[0]

	want := ir.TypeSpec{SourceName: "LibrariesForLibs", InternalName: "org/gradle/accessors/dm/LibrariesForLibs"}
	assert.Equal(t, want, c.BuildscriptExtension.ReturnType)
	assert.Equal(t, want, c.PluginsExtension.ReturnType)
	assert.Equal(t, ir.ScriptHandlerScopeType, c.BuildscriptExtension.ReceiverType)
	assert.Equal(t, ir.PluginDependenciesSpecScopeType, c.PluginsExtension.ReceiverType)
	assert.NotEqual(t, c.BuildscriptExtension.ReceiverType, c.PluginsExtension.ReceiverType)
	assert.Equal(t, "libs", c.BuildscriptExtension.Name)
	assert.Equal(t, "libs", c.PluginsExtension.Name)
	assert.Len(t, ir.CatalogSignatures(catalogs), 2)
}

func TestTypeRef_ExplicitInternalName(t *testing.T) {
	ts := ir.TypeRef{Name: "org.example.Outer.Libs", InternalName: "org/example/Outer$Libs"}.TypeSpec()
	assert.Equal(t, "Libs", ts.SourceName)
	assert.Equal(t, "org/example/Outer$Libs", ts.InternalName)
	assert.Equal(t, "org.example.Outer.Libs", ts.QualifiedName())
}

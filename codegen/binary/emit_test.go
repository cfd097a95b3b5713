package binary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/jvm"
	"goa.design/accessors/codegen/naming"
	"goa.design/accessors/codegen/testhelpers"
)

const (
	specName  = "org/gradle/plugin/use/PluginDependenciesSpec"
	depName   = "org/gradle/plugin/use/PluginDependencySpec"
	javaGroup = "org/gradle/kotlin/dsl/JavaPluginGroup"
)

func javaAccessors() []ir.Accessor {
	return ir.PluginAccessorsFor([]ir.PluginSpec{
		{ID: "java", ImplementationClass: "JavaImpl"},
		{ID: "java.library", ImplementationClass: "JavaLibraryImpl"},
	})
}

func TestEmitPlugins_Layout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(javaAccessors(), dir))

	files := testhelpers.ReadTree(t, dir)
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"META-INF/kotlin-dsl-plugin-spec-accessors.kotlin_module",
		"org/gradle/kotlin/dsl/PluginAccessorsKt.class",
		"org/gradle/kotlin/dsl/JavaPluginGroup.class",
	}, keys)

	m, err := ReadModule(dir, PluginSpecModuleName)
	require.NoError(t, err)
	assert.Equal(t, []string{PluginAccessorsFacade}, m.Facades())
}

func TestEmitPlugins_Properties(t *testing.T) {
	dir := t.TempDir()
	accessors := javaAccessors()
	require.NoError(t, EmitPlugins(accessors, dir))

	sigs, err := ReadProperties(dir, PluginAccessorsFacade)
	require.NoError(t, err)
	assert.Equal(t, ir.Signatures(accessors), sigs)
	assert.Equal(t, ir.PropertySignature{
		Name:     "library",
		Receiver: "org.gradle.kotlin.dsl.JavaPluginGroup",
		Return:   "org.gradle.plugin.use.PluginDependencySpec",
	}, sigs[2])

	_, meta, err := ReadFacade(dir, PluginAccessorsFacade)
	require.NoError(t, err)
	assert.Equal(t, PluginSpecModuleName, meta.ModuleName)
}

func TestEmitPlugins_Getters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(javaAccessors(), dir))
	class, _, err := ReadFacade(dir, PluginAccessorsFacade)
	require.NoError(t, err)
	assert.Equal(t, uint16(jvm.MajorVersion), class.Major)

	rootPlugin := class.MethodOf("getJava", "(L"+specName+";)L"+depName+";")
	require.NotNil(t, rootPlugin)
	assert.Equal(t, jvm.AccPublic|jvm.AccStatic|jvm.AccFinal, rootPlugin.Access)
	assert.Equal(t, []string{
		"aload_0",
		`ldc "java"`,
		"invokeinterface " + specName + ".id:(Ljava/lang/String;)L" + depName + ";",
		"areturn",
	}, rootPlugin.Code.Instructions())

	rootGroup := class.MethodOf("getJava", "(L"+specName+";)L"+javaGroup+";")
	require.NotNil(t, rootGroup)
	assert.Equal(t, []string{
		"new " + javaGroup,
		"dup",
		"aload_0",
		"invokespecial " + javaGroup + ".<init>:(L" + specName + ";)V",
		"areturn",
	}, rootGroup.Code.Instructions())
	assert.Equal(t, uint16(3), rootGroup.Code.MaxStack)

	nested := class.MethodOf("getLibrary", "(L"+javaGroup+";)L"+depName+";")
	require.NotNil(t, nested)
	assert.Equal(t, []string{
		"aload_0",
		"getfield " + javaGroup + ".plugins:L" + specName + ";",
		`ldc "java.library"`,
		"invokeinterface " + specName + ".id:(Ljava/lang/String;)L" + depName + ";",
		"areturn",
	}, nested.Code.Instructions())
}

func TestEmitPlugins_NestedGroup(t *testing.T) {
	dir := t.TempDir()
	accessors := ir.PluginAccessorsFor(testhelpers.Specs("org.example.tools"))
	require.NoError(t, EmitPlugins(accessors, dir))

	data, err := os.ReadFile(ClassFile(dir, "org/gradle/kotlin/dsl/OrgExamplePluginGroup"))
	require.NoError(t, err)
	group, err := jvm.ParseClass(data)
	require.NoError(t, err)

	class, _, err := ReadFacade(dir, PluginAccessorsFacade)
	require.NoError(t, err)
	getter := class.MethodOf("getExample", "(Lorg/gradle/kotlin/dsl/OrgPluginGroup;)L"+group.Name+";")
	require.NotNil(t, getter)
	assert.Equal(t, []string{
		"new " + group.Name,
		"dup",
		"aload_0",
		"getfield org/gradle/kotlin/dsl/OrgPluginGroup.plugins:L" + specName + ";",
		"invokespecial " + group.Name + ".<init>:(L" + specName + ";)V",
		"areturn",
	}, getter.Code.Instructions())
}

func TestGroupClass(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(javaAccessors(), dir))
	data, err := os.ReadFile(ClassFile(dir, javaGroup))
	require.NoError(t, err)
	c, err := jvm.ParseClass(data)
	require.NoError(t, err)

	require.Len(t, c.Fields, 1)
	assert.Equal(t, "plugins", c.Fields[0].Name)
	assert.Zero(t, c.Fields[0].Access&(jvm.AccPublic|0x0002|0x0004), "field is package-private")
	ctor := c.MethodOf("<init>", "(L"+specName+";)V")
	require.NotNil(t, ctor)
	assert.Equal(t, "return", ctor.Code.Instructions()[len(ctor.Code.Instructions())-1])
}

func TestEmitCatalogs(t *testing.T) {
	dir := t.TempDir()
	catalogs := ir.CatalogAccessors([]ir.CatalogEntry{
		{Name: "libs", PublicType: ir.TypeRef{Name: "org.example.LibrariesForLibs"}},
	})
	require.NoError(t, EmitCatalogs(catalogs, dir))

	sigs, err := ReadProperties(dir, CatalogAccessorsFacade)
	require.NoError(t, err)
	assert.Equal(t, ir.CatalogSignatures(catalogs), sigs)
	require.Len(t, sigs, 2)
	assert.Equal(t, sigs[0].Return, sigs[1].Return)
	assert.NotEqual(t, sigs[0].Receiver, sigs[1].Receiver)

	class, _, err := ReadFacade(dir, CatalogAccessorsFacade)
	require.NoError(t, err)
	scope := "org/gradle/kotlin/dsl/ScriptHandlerScope"
	internal := "org/gradle/kotlin/dsl/support/ScriptHandlerScopeInternal"
	getter := class.MethodOf("getLibs", "(L"+scope+";)Lorg/example/LibrariesForLibs;")
	require.NotNil(t, getter)
	assert.Equal(t, []string{
		"aload_0",
		"checkcast " + internal,
		`ldc "libs"`,
		"invokevirtual " + internal + ".versionCatalogExtension:(Ljava/lang/String;)Lorg/gradle/api/internal/catalog/ExternalModuleDependencyFactory;",
		"checkcast org/example/LibrariesForLibs",
		"areturn",
	}, getter.Code.Instructions())

	m, err := ReadModule(dir, CatalogModuleName)
	require.NoError(t, err)
	assert.Equal(t, []string{CatalogAccessorsFacade}, m.Facades())
}

func TestEmit_Empty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(nil, dir))
	require.NoError(t, EmitCatalogs(nil, dir))

	sigs, err := ReadProperties(dir, PluginAccessorsFacade)
	require.NoError(t, err)
	assert.Empty(t, sigs)
	sigs, err = ReadProperties(dir, CatalogAccessorsFacade)
	require.NoError(t, err)
	assert.Empty(t, sigs)
	assert.FileExists(t, filepath.Join(dir, "META-INF", "kotlin-dsl-plugin-spec-accessors.kotlin_module"))
}

func TestEmitPlugins_Invalid(t *testing.T) {
	dir := t.TempDir()
	err := EmitPlugins(ir.PluginAccessorsFor(testhelpers.Specs("ok", "bad..id")), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, naming.ErrInvalidIdentifier))
	var invalid *ir.InvalidAccessorError
	require.ErrorAs(t, err, &invalid)
}

func TestEmitPlugins_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	specs := testhelpers.Specs("com.example", "com.example.tools", "org.jetbrains.kotlin.jvm", "org.jetbrains.kotlin.android")
	require.NoError(t, EmitPlugins(ir.PluginAccessorsFor(specs), a))
	require.NoError(t, EmitPlugins(ir.PluginAccessorsFor(specs), b))
	assert.Equal(t, testhelpers.ReadTree(t, a), testhelpers.ReadTree(t, b))
}

func TestGroupClass_Golden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(javaAccessors(), dir))
	data, err := os.ReadFile(ClassFile(dir, javaGroup))
	require.NoError(t, err)
	c, err := jvm.ParseClass(data)
	require.NoError(t, err)
	testhelpers.AssertGolden(t, "java", "JavaPluginGroup.class.txt", jvm.Disassemble(c))
}

func TestFacade_Disassembly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitPlugins(javaAccessors(), dir))
	class, _, err := ReadFacade(dir, PluginAccessorsFacade)
	require.NoError(t, err)

	out := jvm.Disassemble(class)
	assert.Contains(t, out, "class "+PluginAccessorsFacade+" extends java/lang/Object (version 52, access 0x1031)\n")
	assert.Contains(t, out, "  @Lkotlin/Metadata;\n")
	assert.Contains(t, out, "  method 0x0019 getJava(L"+specName+";)L"+depName+";\n")
	assert.Contains(t, out, "  method 0x0019 getJava(L"+specName+";)L"+javaGroup+";\n")
	assert.Contains(t, out, "  method 0x0019 getLibrary(L"+javaGroup+";)L"+depName+";\n")
}

func TestBuildPlugins_DuplicateGetter(t *testing.T) {
	dir := t.TempDir()
	_, err := BuildPlugins(ir.PluginAccessorsFor(testhelpers.Specs("tools.foo", "tools.Foo")))
	require.ErrorIs(t, err, ErrDuplicateGetter)
	var invalid *ir.InvalidAccessorError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "tools.Foo", invalid.Path)

	err = EmitPlugins(ir.PluginAccessorsFor(testhelpers.Specs("foo", "Foo")), dir)
	assert.ErrorIs(t, err, ErrDuplicateGetter)
	assert.Empty(t, testhelpers.ReadTree(t, dir))
}

func TestBuildCatalogs_DuplicateGetter(t *testing.T) {
	_, err := BuildCatalogs(ir.CatalogAccessors([]ir.CatalogEntry{
		{Name: "libs", PublicType: ir.TypeRef{Name: "org.example.Libs"}},
		{Name: "Libs", PublicType: ir.TypeRef{Name: "org.example.Libs"}},
	}))
	require.ErrorIs(t, err, ErrDuplicateGetter)
	var invalid *ir.InvalidAccessorError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Libs", invalid.Path)
}

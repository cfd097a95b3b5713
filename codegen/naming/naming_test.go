package naming

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suffix = "PluginGroup"

func TestGroupTypeName(t *testing.T) {
	cases := []struct {
		path []string
		want string
	}{
		{[]string{"java"}, "JavaPluginGroup"},
		{[]string{"org", "jetbrains", "kotlin"}, "OrgJetbrainsKotlinPluginGroup"},
		{[]string{"kotlin-jvm"}, "Kotlin-jvmPluginGroup"},
		{[]string{"a", "bC"}, "A_2_bCPluginGroup"},
		{[]string{"a", "1"}, "A_1_1PluginGroup"},
		{[]string{"A"}, "_1_APluginGroup"},
		{[]string{"my_plugin"}, "_9_my_pluginPluginGroup"},
	}
	for _, c := range cases {
		t.Run(strings.Join(c.path, "."), func(t *testing.T) {
			assert.Equal(t, c.want, GroupTypeName(c.path, suffix))
		})
	}
}

func TestGroupTypeName_AdversarialPrefixes(t *testing.T) {
	paths := [][]string{
		{"a"}, {"a", "b"}, {"a", "bc"}, {"ab"}, {"ab", "c"}, {"a", "b", "c"},
		{"a", "bC"}, {"a1"}, {"a", "1"}, {"A"}, {"a_"}, {"a", "_"},
	}
	seen := make(map[string][]string, len(paths))
	for _, p := range paths {
		name := GroupTypeName(p, suffix)
		if prev, ok := seen[name]; ok {
			t.Fatalf("%v and %v both map to %s", prev, p, name)
		}
		seen[name] = p
	}
}

func TestGroupTypeNameRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	segment := gen.OneGenOf(
		gen.OneConstOf("a", "b", "ab", "bc", "c", "1", "A", "bC", "x-y", "_"),
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	)

	properties.Property("group type names decode to their path", prop.ForAll(
		func(path []string) bool {
			got, ok := SplitPath(GroupTypeName(path, suffix), suffix)
			return ok && strings.Join(got, "\x00") == strings.Join(path, "\x00")
		},
		gen.SliceOfN(4, segment).SuchThat(func(p []string) bool { return len(p) > 0 }),
	))

	properties.TestingRun(t)
}

func TestValidatePropertyName(t *testing.T) {
	require.NoError(t, ValidatePropertyName("java"))
	require.NoError(t, ValidatePropertyName("class"))
	require.NoError(t, ValidatePropertyName("kotlin-jvm"))

	for _, name := range []string{"", "a/b", "a;b", "a`b", "a<b", "line\nbreak", `a"b`, "a$b", "${x}"} {
		err := ValidatePropertyName(name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), name)
	}
}

func TestValidateTypeName(t *testing.T) {
	require.NoError(t, ValidateTypeName("LibrariesForLibs"))
	require.NoError(t, ValidateTypeName("JavaPluginGroup"))
	require.NoError(t, ValidateTypeName("Kotlin-jvmPluginGroup"))

	for _, name := range []string{"", "fun", "object", "1Type", "A B", "-Lead"} {
		err := ValidateTypeName(name)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, name)
	}
}

func TestQualifiedNames(t *testing.T) {
	assert.Equal(t, "org.example.Outer.Inner", SourceNameOfBinaryName("org.example.Outer$Inner"))
	assert.Equal(t, "org/example/Foo", InternalNameOf("org.example.Foo"))
	assert.Equal(t, "Foo", SimpleNameOf("org.example.Foo"))
	assert.Equal(t, "Foo", SimpleNameOf("Foo"))
	assert.Equal(t, "Éa", UppercaseFirst("éa"))
	assert.Equal(t, "", UppercaseFirst(""))
}

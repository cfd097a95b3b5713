package ir_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/codegen/ir"
)

func specs(ids ...string) []ir.PluginSpec {
	out := make([]ir.PluginSpec, len(ids))
	for i, id := range ids {
		out[i] = ir.PluginSpec{ID: id, ImplementationClass: "impl." + strings.ReplaceAll(id, ".", "_")}
	}
	return out
}

// idGen generates dotted ids over a tiny alphabet so prefixes are shared
// often.
func idGen() gopter.Gen {
	segment := gen.OneConstOf("a", "b", "ab", "bc", "c", "A", "1", "bC")
	return gen.IntRange(1, 4).FlatMap(func(v any) gopter.Gen {
		return gen.SliceOfN(v.(int), segment)
	}, reflect.TypeOf([]string(nil))).Map(func(segments []string) string {
		return strings.Join(segments, ".")
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func TestBuildTree_Shape(t *testing.T) {
	root := ir.BuildTree(specs("org.gradle.java", "org.gradle.java.library", "kotlin", "org.other"))

	require.Len(t, root.Children, 2)
	assert.Equal(t, "org", root.Children[0].Segment())
	assert.Equal(t, "kotlin", root.Children[1].Segment())
	assert.True(t, root.Children[1].IsLeaf())
	assert.False(t, root.Children[1].IsGroup())

	org := root.Child("org")
	require.NotNil(t, org)
	assert.True(t, org.IsGroup())
	assert.False(t, org.IsLeaf())
	require.Len(t, org.Children, 2)
	assert.Equal(t, "gradle", org.Children[0].Segment())
	assert.Equal(t, "other", org.Children[1].Segment())

	java := org.Child("gradle").Child("java")
	require.NotNil(t, java)
	assert.True(t, java.IsLeaf(), "java is a plugin")
	assert.True(t, java.IsGroup(), "java is the prefix of java.library")
	assert.Equal(t, "org.gradle.java", java.ID())
	assert.Equal(t, "org.gradle.java", java.Spec.ID)
}

func TestBuildTree_Empty(t *testing.T) {
	root := ir.BuildTree(nil)
	assert.False(t, root.IsGroup())
	assert.False(t, root.IsLeaf())
	assert.Empty(t, ir.PluginAccessors(root, ir.PluginDependenciesSpecType))
}

func TestBuildTree_Walk(t *testing.T) {
	root := ir.BuildTree(specs("a.b", "a", "c"))
	var ids []string
	root.Walk(func(n *ir.PluginTree) bool {
		ids = append(ids, n.ID())
		return true
	})
	assert.Equal(t, []string{"", "a", "a.b", "c"}, ids)

	var visited int
	root.Walk(func(*ir.PluginTree) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestBuildTree_DeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same input builds equal trees", prop.ForAll(
		func(ids []string) bool {
			in := specs(dedupe(ids)...)
			a, b := ir.BuildTree(in), ir.BuildTree(in)
			if !a.Equal(b) {
				return false
			}
			aj, err := json.Marshal(ir.PluginAccessors(a, ir.PluginDependenciesSpecType))
			if err != nil {
				return false
			}
			bj, err := json.Marshal(ir.PluginAccessors(b, ir.PluginDependenciesSpecType))
			return err == nil && string(aj) == string(bj)
		},
		gen.SliceOf(idGen()),
	))

	properties.Property("every id is reachable as a leaf", prop.ForAll(
		func(ids []string) bool {
			ids = dedupe(ids)
			root := ir.BuildTree(specs(ids...))
			for _, id := range ids {
				node := root
				for _, s := range strings.Split(id, ".") {
					if node = node.Child(s); node == nil {
						return false
					}
				}
				if !node.IsLeaf() || node.Spec.ID != id {
					return false
				}
			}
			return true
		},
		gen.SliceOf(idGen()),
	))

	properties.TestingRun(t)
}

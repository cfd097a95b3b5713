package ir

import (
	"goa.design/accessors/codegen/naming"
)

// PluginAccessors flattens the tree into the ordered accessor list. Children
// are visited depth-first in insertion order. For every node the leaf
// accessor, if any, precedes the group accessor and the group's descendants.
// Top-level accessors extend receiver, typically PluginDependenciesSpecType.
func PluginAccessors(root *PluginTree, receiver TypeSpec) []Accessor {
	var accessors []Accessor
	var visit func(node *PluginTree, receiver TypeSpec)
	visit = func(node *PluginTree, receiver TypeSpec) {
		for _, c := range node.Children {
			name := c.Segment()
			if c.Spec != nil {
				accessors = append(accessors, &ForPlugin{
					ID:                  c.Spec.ID,
					ImplementationClass: c.Spec.ImplementationClass,
					Spec:                ExtensionSpec{Name: name, ReceiverType: receiver, ReturnType: PluginDependencySpecType},
				})
			}
			if !c.IsGroup() {
				continue
			}
			groupType := PluginGroupType(c.Path)
			accessors = append(accessors, &ForGroup{
				ID:   c.ID(),
				Spec: ExtensionSpec{Name: name, ReceiverType: receiver, ReturnType: groupType},
			})
			visit(c, groupType)
		}
	}
	visit(root, receiver)
	return accessors
}

// PluginAccessorsFor builds the tree from specs and flattens it with the
// default top-level receiver.
func PluginAccessorsFor(specs []PluginSpec) []Accessor {
	return PluginAccessors(BuildTree(specs), PluginDependenciesSpecType)
}

// PluginGroupType returns the synthesized type of the group at path.
func PluginGroupType(path []string) TypeSpec {
	name := naming.GroupTypeName(path, PluginGroupSuffix)
	return TypeSpec{SourceName: name, InternalName: DSLPackagePath + "/" + name}
}

// GroupTypes returns the distinct group types returned by accessors, in
// order of first appearance.
func GroupTypes(accessors []Accessor) []TypeSpec {
	seen := make(map[string]struct{})
	var types []TypeSpec
	for _, a := range accessors {
		g, ok := a.(*ForGroup)
		if !ok {
			continue
		}
		if _, dup := seen[g.Spec.ReturnType.InternalName]; dup {
			continue
		}
		seen[g.Spec.ReturnType.InternalName] = struct{}{}
		types = append(types, g.Spec.ReturnType)
	}
	return types
}

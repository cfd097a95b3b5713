package ir

import "strings"

// PluginTree is a node of the plugin id prefix tree. A node with children is
// a group; a node with a Spec is a leaf. A node may be both when a plugin id
// is also the prefix of other plugin ids.
type PluginTree struct {
	// Path holds the id segments leading to the node. It is empty for the
	// root.
	Path []string
	// Spec is the plugin whose id is exactly Path, if any.
	Spec *PluginSpec
	// Children are ordered by first insertion.
	Children []*PluginTree

	index map[string]*PluginTree
}

// BuildTree groups plugin specs by id segment. Segments keep the order in
// which they are first seen so the same input always produces the same tree.
// Duplicate ids are not expected; the last spec wins.
func BuildTree(specs []PluginSpec) *PluginTree {
	root := &PluginTree{}
	for i := range specs {
		spec := specs[i]
		node := root
		for _, segment := range strings.Split(spec.ID, ".") {
			node = node.child(segment)
		}
		node.Spec = &spec
	}
	return root
}

// Segment returns the last path segment, the name of the node's accessor.
func (t *PluginTree) Segment() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// ID returns the dotted path of the node.
func (t *PluginTree) ID() string {
	return strings.Join(t.Path, ".")
}

// IsGroup reports whether the node has children.
func (t *PluginTree) IsGroup() bool {
	return len(t.Children) > 0
}

// IsLeaf reports whether the node carries a plugin spec.
func (t *PluginTree) IsLeaf() bool {
	return t.Spec != nil
}

// Child returns the direct child for segment or nil.
func (t *PluginTree) Child(segment string) *PluginTree {
	return t.index[segment]
}

// Walk visits the node and its descendants depth-first in insertion order.
// Walking stops early when fn returns false.
func (t *PluginTree) Walk(fn func(*PluginTree) bool) bool {
	if !fn(t) {
		return false
	}
	for _, c := range t.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Equal reports whether both trees have the same shape, order and specs.
func (t *PluginTree) Equal(other *PluginTree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.ID() != other.ID() || len(t.Children) != len(other.Children) {
		return false
	}
	switch {
	case t.Spec == nil && other.Spec == nil:
	case t.Spec == nil || other.Spec == nil:
		return false
	case *t.Spec != *other.Spec:
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

func (t *PluginTree) child(segment string) *PluginTree {
	if c, ok := t.index[segment]; ok {
		return c
	}
	path := make([]string, len(t.Path)+1)
	copy(path, t.Path)
	path[len(t.Path)] = segment
	c := &PluginTree{Path: path}
	if t.index == nil {
		t.index = make(map[string]*PluginTree)
	}
	t.index[segment] = c
	t.Children = append(t.Children, c)
	return c
}

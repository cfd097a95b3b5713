// Package ir provides the stable, deterministic intermediate representation
// shared by the source and binary accessor emitters.
//
// The IR is built from an ordered registry snapshot: plugin ids are grouped
// into a prefix tree (BuildTree), the tree is flattened into an ordered
// accessor list (PluginAccessors), and catalog entries are mapped to one
// accessor per consuming scope (CatalogAccessors). Both emitters iterate the
// same values so that what a consumer reads in the generated source is what
// it finds in the generated class files.
package ir

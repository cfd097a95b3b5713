// Package naming contains the naming rules shared by the accessor generators.
//
// Group type names are derived from dotted identifier paths by a pure,
// injective function so that two distinct paths never map to the same type.
// The package also validates names before they reach the source and binary
// emitters.
package naming

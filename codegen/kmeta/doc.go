// Package kmeta encodes the Kotlin metadata carried by generated file facade
// classes and the module mapping file listing them. Only the subset needed
// to declare top-level extension properties is supported.
package kmeta

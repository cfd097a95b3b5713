// Package jvm writes and reads JVM class files.
//
// It covers the subset of the class file format needed by generated
// accessors: public classes with fields, straight-line methods (no branches,
// hence no stack map frames) and runtime-visible annotations whose elements
// are ints, strings or arrays of those. The reader parses the same subset so
// tests and tooling can inspect generated classes without a JVM.
package jvm

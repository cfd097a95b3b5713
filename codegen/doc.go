// Package codegen emits plugin and version catalog accessors as two
// equivalent artifacts: a Kotlin source file under the sources directory
// and a precompiled JVM module under the classes directory.
//
// Accessors are derived with package ir, rendered as source by package
// kotlin and as class files by package binary.
package codegen

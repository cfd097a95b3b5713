// Package kotlin renders accessor IR into Kotlin source files.
//
// Files are modelled as goa codegen.File values made of section templates
// embedded under templates/. Rendering is byte-reproducible: sections are
// executed in order, newlines are always "\n" and nothing depends on map
// iteration or the clock.
package kotlin

// Package registry provides the input of accessor generation: a Snapshot of
// the plugin ids and version catalogs visible to a build, loaded from a YAML
// registry file, and the ScopeHasher fingerprinting the files a snapshot was
// read from.
package registry

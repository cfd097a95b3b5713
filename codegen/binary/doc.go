// Package binary emits accessors as precompiled JVM classes: a file facade
// declaring one static getter per accessor, one class per plugin group and
// the module file listing the facade.
package binary

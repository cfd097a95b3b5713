package ir

import (
	"fmt"

	"goa.design/accessors/codegen/naming"
)

// InvalidAccessorError reports an accessor whose names cannot be emitted.
type InvalidAccessorError struct {
	// Path is the dotted id or catalog name of the offending accessor.
	Path string
	Err  error
}

// Error implements error.
func (e *InvalidAccessorError) Error() string {
	return fmt.Sprintf("accessor %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying naming error.
func (e *InvalidAccessorError) Unwrap() error { return e.Err }

// ValidateAccessor checks the property and type names of a plugin accessor.
func ValidateAccessor(a Accessor) error {
	ext := a.Extension()
	if err := naming.ValidatePropertyName(ext.Name); err != nil {
		return &InvalidAccessorError{Path: a.Path(), Err: err}
	}
	if g, ok := a.(*ForGroup); ok {
		if err := naming.ValidateTypeName(g.Spec.ReturnType.SourceName); err != nil {
			return &InvalidAccessorError{Path: a.Path(), Err: err}
		}
	}
	return nil
}

// ValidateCatalog checks the property name and public type of a catalog.
func ValidateCatalog(c CatalogAccessor) error {
	if err := naming.ValidatePropertyName(c.Name); err != nil {
		return &InvalidAccessorError{Path: c.Name, Err: err}
	}
	if err := naming.ValidateTypeName(c.BuildscriptExtension.ReturnType.SourceName); err != nil {
		return &InvalidAccessorError{Path: c.Name, Err: err}
	}
	return nil
}

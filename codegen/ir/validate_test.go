package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/naming"
)

func TestValidateAccessor(t *testing.T) {
	for _, a := range ir.PluginAccessorsFor([]ir.PluginSpec{
		{ID: "org.jetbrains.kotlin.jvm", ImplementationClass: "K"},
		{ID: "com.example.my-plugin", ImplementationClass: "M"},
	}) {
		assert.NoError(t, ir.ValidateAccessor(a), a.Path())
	}
}

func TestValidateAccessor_EmptySegment(t *testing.T) {
	var failed *ir.InvalidAccessorError
	for _, a := range ir.PluginAccessorsFor([]ir.PluginSpec{{ID: "a..b", ImplementationClass: "X"}}) {
		if err := ir.ValidateAccessor(a); err != nil {
			require.ErrorAs(t, err, &failed)
			assert.ErrorIs(t, err, naming.ErrInvalidIdentifier)
			break
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "a.", failed.Path)
}

func TestValidateCatalog(t *testing.T) {
	good := ir.CatalogAccessors([]ir.CatalogEntry{
		{Name: "libs", PublicType: ir.TypeRef{Name: "org.example.LibrariesForLibs"}},
	})
	require.Len(t, good, 1)
	assert.NoError(t, ir.ValidateCatalog(good[0]))

	bad := ir.CatalogAccessors([]ir.CatalogEntry{
		{Name: "", PublicType: ir.TypeRef{Name: "org.example.LibrariesForLibs"}},
		{Name: "libs", PublicType: ir.TypeRef{Name: "org.example.class"}},
	})
	for _, c := range bad {
		err := ir.ValidateCatalog(c)
		var invalid *ir.InvalidAccessorError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, c.Name, invalid.Path)
		assert.ErrorIs(t, err, naming.ErrInvalidIdentifier)
	}
}

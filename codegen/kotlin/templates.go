package kotlin

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

const (
	headerT  = "header"
	importsT = "imports"
	pluginT  = "plugin_accessor"
	groupT   = "group_accessor"
	catalogT = "catalog_accessor"
)

//go:embed templates/*.kt.tpl
var templateFS embed.FS

// templates reads section templates from a provided filesystem.
type templates struct {
	FS fs.FS
}

var kotlinTemplates = &templates{FS: templateFS}

// Read returns the template with the given name.
func (tr *templates) Read(name string) string {
	content, err := fs.ReadFile(tr.FS, path.Join("templates", name+".kt.tpl"))
	if err != nil {
		panic(fmt.Sprintf("failed to load template %s: %v", name, err))
	}
	return string(content)
}

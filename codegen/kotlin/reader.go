package kotlin

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"goa.design/accessors/codegen/ir"
)

var (
	packageRE  = regexp.MustCompile("^package (\\S+)$")
	importRE   = regexp.MustCompile("^import (\\S+)$")
	propertyRE = regexp.MustCompile("^(?:internal )?val (`[^`]+`|[^`.\\s]+)\\.`([^`]+)`: (`[^`]+`|\\S+)$")
)

// ReadProperties parses a generated accessors file and returns the declared
// extension properties in order. Type names are resolved to qualified names
// through the file imports; names that are not imported belong to the file
// package.
func ReadProperties(path string) ([]ir.PropertySignature, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return ParseProperties(content)
}

// ParseProperties is ReadProperties operating on file content.
func ParseProperties(content []byte) ([]ir.PropertySignature, error) {
	var (
		pkg     string
		imports = make(map[string]string)
		props   []ir.PropertySignature
	)
	resolve := func(name string) string {
		name = strings.Trim(name, "`")
		if q, ok := imports[name]; ok {
			return q
		}
		if pkg == "" {
			return name
		}
		return pkg + "." + name
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if m := packageRE.FindStringSubmatch(line); m != nil {
			pkg = m[1]
			continue
		}
		if m := importRE.FindStringSubmatch(line); m != nil {
			q := m[1]
			simple := q
			if i := strings.LastIndexByte(q, '.'); i >= 0 {
				simple = q[i+1:]
			}
			imports[simple] = q
			continue
		}
		if m := propertyRE.FindStringSubmatch(line); m != nil {
			props = append(props, ir.PropertySignature{
				Name:     m[2],
				Receiver: resolve(m[1]),
				Return:   resolve(m[3]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	return props, nil
}

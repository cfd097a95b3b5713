package kmeta

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldModulePackageParts = 1

	fieldPartsPackageFqName  = 1
	fieldPartsShortClassName = 2
)

type (
	// Module is the content of a META-INF/<name>.kotlin_module file.
	Module struct {
		Packages []PackageParts
	}

	// PackageParts lists the file facades of one package.
	PackageParts struct {
		// FqName is the dotted package name.
		FqName string
		// ShortClassNames are the facade class names without package.
		ShortClassNames []string
	}
)

// ModuleFacades returns the module listing the facades given by JVM
// internal name, grouped by package in order of first appearance.
func ModuleFacades(internalNames ...string) *Module {
	m := &Module{}
	for _, n := range internalNames {
		pkg, short := "", n
		if i := strings.LastIndexByte(n, '/'); i >= 0 {
			pkg, short = n[:i], n[i+1:]
		}
		fq := strings.ReplaceAll(pkg, "/", ".")
		idx := slices.IndexFunc(m.Packages, func(p PackageParts) bool { return p.FqName == fq })
		if idx < 0 {
			m.Packages = append(m.Packages, PackageParts{FqName: fq})
			idx = len(m.Packages) - 1
		}
		m.Packages[idx].ShortClassNames = append(m.Packages[idx].ShortClassNames, short)
	}
	return m
}

// Bytes encodes the module file: the metadata version as a big-endian int
// array, the flags int and the Module message.
func (m *Module) Bytes() []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(len(MetadataVersion)))
	for _, v := range MetadataVersion {
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	}
	b = binary.BigEndian.AppendUint32(b, 0)
	for _, p := range m.Packages {
		var parts []byte
		parts = protowire.AppendTag(parts, fieldPartsPackageFqName, protowire.BytesType)
		parts = protowire.AppendString(parts, p.FqName)
		for _, s := range p.ShortClassNames {
			parts = protowire.AppendTag(parts, fieldPartsShortClassName, protowire.BytesType)
			parts = protowire.AppendString(parts, s)
		}
		b = appendMessage(b, fieldModulePackageParts, parts)
	}
	return b
}

// DecodeModule decodes a module file written by Module.Bytes.
func DecodeModule(data []byte) (*Module, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: truncated module header", ErrMalformed)
	}
	n := int(binary.BigEndian.Uint32(data))
	header := 4 * (n + 2)
	if n > 8 || len(data) < header {
		return nil, fmt.Errorf("%w: invalid module header", ErrMalformed)
	}
	m := &Module{}
	d := &decoder{}
	err := d.fields(data[header:], func(num protowire.Number, v []byte, _ uint64) error {
		if num != fieldModulePackageParts {
			return nil
		}
		var p PackageParts
		err := d.fields(v, func(num protowire.Number, v []byte, _ uint64) error {
			switch num {
			case fieldPartsPackageFqName:
				p.FqName = string(v)
			case fieldPartsShortClassName:
				p.ShortClassNames = append(p.ShortClassNames, string(v))
			}
			return nil
		})
		if err != nil {
			return err
		}
		m.Packages = append(m.Packages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Facades returns the internal names of all facades listed by m.
func (m *Module) Facades() []string {
	var out []string
	for _, p := range m.Packages {
		prefix := ""
		if p.FqName != "" {
			prefix = strings.ReplaceAll(p.FqName, ".", "/") + "/"
		}
		for _, s := range p.ShortClassNames {
			out = append(out, prefix+s)
		}
	}
	return out
}

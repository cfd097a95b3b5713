package kmeta

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// KindFileFacade is the kotlin.Metadata kind of a file facade class.
const KindFileFacade = 2

// MetadataVersion is the metadata version written by this package.
var MetadataVersion = []int32{1, 8, 0}

// Flags of generated properties and getters.
const (
	// PropertyFlags marks a public final val with a getter.
	PropertyFlags = 518
	// GetterFlags marks a public non-default getter.
	GetterFlags = 70
)

// Field numbers of the metadata messages.
const (
	fieldStringTableRecord = 1

	fieldPackageProperty   = 4
	fieldPackageModuleName = 101

	fieldPropertyName        = 2
	fieldPropertyReturnType  = 3
	fieldPropertyReceiver    = 5
	fieldPropertyGetterFlags = 7
	fieldPropertyFlags       = 11
	fieldPropertySignature   = 100

	fieldTypeClassName = 6

	fieldSignatureGetter = 3

	fieldMethodName = 1
	fieldMethodDesc = 2
)

type (
	// FileFacade is the metadata of a file facade class declaring
	// top-level extension properties.
	FileFacade struct {
		ModuleName string
		Properties []Property
	}

	// Property is a top-level extension property. Types are JVM internal
	// names.
	Property struct {
		Name         string
		ReceiverType string
		ReturnType   string
		Getter       MethodSignature
	}

	// MethodSignature is the JVM name and descriptor of a method.
	MethodSignature struct {
		Name string
		Desc string
	}

	stringTable struct {
		strings []string
		index   map[string]int
	}
)

// ErrMalformed is returned when metadata cannot be decoded.
var ErrMalformed = errors.New("malformed kotlin metadata")

// Encode returns the d1 and d2 values of the facade's kotlin.Metadata
// annotation.
func (f *FileFacade) Encode() (d1, d2 []string) {
	st := &stringTable{index: make(map[string]int)}
	var pkg []byte
	for _, p := range f.Properties {
		var prop []byte
		prop = protowire.AppendTag(prop, fieldPropertyFlags, protowire.VarintType)
		prop = protowire.AppendVarint(prop, PropertyFlags)
		prop = appendIndex(prop, fieldPropertyName, st.id(p.Name))
		prop = appendMessage(prop, fieldPropertyReturnType, st.typeOf(p.ReturnType))
		prop = appendMessage(prop, fieldPropertyReceiver, st.typeOf(p.ReceiverType))
		prop = protowire.AppendTag(prop, fieldPropertyGetterFlags, protowire.VarintType)
		prop = protowire.AppendVarint(prop, GetterFlags)

		var getter []byte
		getter = appendIndex(getter, fieldMethodName, st.id(p.Getter.Name))
		getter = appendIndex(getter, fieldMethodDesc, st.id(p.Getter.Desc))
		prop = appendMessage(prop, fieldPropertySignature, appendMessage(nil, fieldSignatureGetter, getter))

		pkg = appendMessage(pkg, fieldPackageProperty, prop)
	}
	pkg = appendIndex(pkg, fieldPackageModuleName, st.id(f.ModuleName))

	// An empty StringTableTypes message, length-delimited, precedes the
	// package: strings are used verbatim.
	data := protowire.AppendVarint(nil, 0)
	data = append(data, pkg...)
	return EncodeBytes(data), append([]string{}, st.strings...)
}

// DecodeFileFacade decodes the d1 and d2 values of a kotlin.Metadata
// annotation of kind KindFileFacade.
func DecodeFileFacade(d1, d2 []string) (*FileFacade, error) {
	data, err := DecodeBytes(d1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	types, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, fmt.Errorf("%w: string table types: %w", ErrMalformed, protowire.ParseError(n))
	}
	if err := checkNoRecords(types); err != nil {
		return nil, err
	}
	d := &decoder{strings: d2}
	f := &FileFacade{}
	err = d.fields(data[n:], func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case fieldPackageProperty:
			p, err := d.property(v)
			if err != nil {
				return err
			}
			f.Properties = append(f.Properties, *p)
		case fieldPackageModuleName:
			name, err := d.str(x)
			if err != nil {
				return err
			}
			f.ModuleName = name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (st *stringTable) id(s string) int {
	if i, ok := st.index[s]; ok {
		return i
	}
	i := len(st.strings)
	st.strings = append(st.strings, s)
	st.index[s] = i
	return i
}

// typeOf encodes a class type. Kotlin class ids separate nested classes
// with '.'.
func (st *stringTable) typeOf(internalName string) []byte {
	return appendIndex(nil, fieldTypeClassName, st.id(strings.ReplaceAll(internalName, "$", ".")))
}

func appendIndex(b []byte, num protowire.Number, i int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(i))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func checkNoRecords(types []byte) error {
	d := &decoder{}
	return d.fields(types, func(num protowire.Number, _ []byte, _ uint64) error {
		if num == fieldStringTableRecord {
			return fmt.Errorf("%w: string table records are not supported", ErrMalformed)
		}
		return nil
	})
}

type decoder struct {
	strings []string
}

// fields calls fn for every field of msg. Length-delimited values are passed
// as v, varints as x. Other wire types are skipped.
func (d *decoder) fields(msg []byte, fn func(num protowire.Number, v []byte, x uint64) error) error {
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		msg = msg[n:]
		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(msg)
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(msg)
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		msg = msg[n:]
		if err := fn(num, v, x); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) str(i uint64) (string, error) {
	if i >= uint64(len(d.strings)) {
		return "", fmt.Errorf("%w: string index %d out of range", ErrMalformed, i)
	}
	return d.strings[i], nil
}

func (d *decoder) property(msg []byte) (*Property, error) {
	p := &Property{}
	err := d.fields(msg, func(num protowire.Number, v []byte, x uint64) error {
		var err error
		switch num {
		case fieldPropertyName:
			p.Name, err = d.str(x)
		case fieldPropertyReturnType:
			p.ReturnType, err = d.className(v)
		case fieldPropertyReceiver:
			p.ReceiverType, err = d.className(v)
		case fieldPropertySignature:
			err = d.fields(v, func(num protowire.Number, v []byte, _ uint64) error {
				if num != fieldSignatureGetter {
					return nil
				}
				return d.fields(v, func(num protowire.Number, _ []byte, x uint64) error {
					var err error
					switch num {
					case fieldMethodName:
						p.Getter.Name, err = d.str(x)
					case fieldMethodDesc:
						p.Getter.Desc, err = d.str(x)
					}
					return err
				})
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: property without name", ErrMalformed)
	}
	return p, nil
}

func (d *decoder) className(msg []byte) (string, error) {
	var name string
	err := d.fields(msg, func(num protowire.Number, _ []byte, x uint64) error {
		if num != fieldTypeClassName {
			return nil
		}
		var err error
		name, err = d.str(x)
		return err
	})
	if err == nil && name == "" {
		err = fmt.Errorf("%w: type without class name", ErrMalformed)
	}
	return name, err
}

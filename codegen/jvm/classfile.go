package jvm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Access flags.
const (
	AccPublic    uint16 = 0x0001
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccSynthetic uint16 = 0x1000
)

const (
	magic = 0xcafebabe
	// MajorVersion is the class file version written, Java 8.
	MajorVersion = 52

	// ObjectInternalName is the internal name of java.lang.Object.
	ObjectInternalName = "java/lang/Object"

	maxU2 = 0xffff
)

// ErrTooLarge is returned when a table of the class exceeds its u2 count.
var ErrTooLarge = errors.New("class too large")

type (
	// ClassWriter assembles a single class file. The zero value is not
	// usable; call NewClass.
	ClassWriter struct {
		pool        *constPool
		access      uint16
		thisClass   uint16
		superClass  uint16
		name        string
		fields      [][]byte
		methods     [][]byte
		annotations [][]byte
		err         error
	}

	// Element is a named annotation element. Value must be an int32, a
	// string or a slice of one of those ([]int32, []string).
	Element struct {
		Name  string
		Value any
	}
)

// NewClass starts a class with the given access flags, internal name and
// super class internal name.
func NewClass(access uint16, name, super string) *ClassWriter {
	pool := newConstPool()
	cw := &ClassWriter{pool: pool, access: access | AccSuper, name: name}
	cw.thisClass = pool.class(name)
	cw.superClass = pool.class(super)
	return cw
}

// Name returns the internal name of the class.
func (cw *ClassWriter) Name() string { return cw.name }

// Field declares a field without initial value.
func (cw *ClassWriter) Field(access uint16, name, desc string) {
	b := binary.BigEndian.AppendUint16(nil, access)
	b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(name))
	b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(desc))
	b = binary.BigEndian.AppendUint16(b, 0)
	cw.fields = append(cw.fields, b)
}

// Method declares a method whose body is emitted by body.
func (cw *ClassWriter) Method(access uint16, name, desc string, body func(*Code)) {
	code := newCode(cw.pool, access&AccStatic != 0, desc)
	body(code)
	if len(code.buf) > maxU2 {
		cw.fail(fmt.Errorf("%w: method %s code is %d bytes", ErrTooLarge, name, len(code.buf)))
	}

	attr := binary.BigEndian.AppendUint16(nil, code.maxStack)
	attr = binary.BigEndian.AppendUint16(attr, code.maxLocals)
	attr = binary.BigEndian.AppendUint32(attr, uint32(len(code.buf)))
	attr = append(attr, code.buf...)
	attr = binary.BigEndian.AppendUint16(attr, 0) // exception table
	attr = binary.BigEndian.AppendUint16(attr, 0) // attributes

	b := binary.BigEndian.AppendUint16(nil, access)
	b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(name))
	b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(desc))
	b = binary.BigEndian.AppendUint16(b, 1)
	b = cw.appendAttribute(b, "Code", attr)
	cw.methods = append(cw.methods, b)
}

// Annotation adds a runtime-visible annotation of type desc.
func (cw *ClassWriter) Annotation(desc string, elements ...Element) {
	b := binary.BigEndian.AppendUint16(nil, cw.pool.utf8(desc))
	b = binary.BigEndian.AppendUint16(b, cw.count(len(elements), "annotation elements"))
	for _, e := range elements {
		b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(e.Name))
		b = cw.appendElementValue(b, e.Value)
	}
	cw.annotations = append(cw.annotations, b)
}

// Bytes returns the encoded class file. It fails when the class exceeds a
// limit of the class file format, such as 65535 constant pool entries.
func (cw *ClassWriter) Bytes() ([]byte, error) {
	// Attribute names must be interned before the pool is written.
	var classAttrs []byte
	var attrCount uint16
	if len(cw.annotations) > 0 {
		body := binary.BigEndian.AppendUint16(nil, cw.count(len(cw.annotations), "annotations"))
		for _, a := range cw.annotations {
			body = append(body, a...)
		}
		classAttrs = cw.appendAttribute(classAttrs, "RuntimeVisibleAnnotations", body)
		attrCount++
	}
	fieldCount := cw.count(len(cw.fields), "fields")
	methodCount := cw.count(len(cw.methods), "methods")
	if cw.pool.err != nil {
		return nil, fmt.Errorf("class %s: %w", cw.name, cw.pool.err)
	}
	if cw.err != nil {
		return nil, fmt.Errorf("class %s: %w", cw.name, cw.err)
	}

	out := binary.BigEndian.AppendUint32(nil, magic)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, MajorVersion)
	out = append(out, cw.pool.bytes()...)
	out = binary.BigEndian.AppendUint16(out, cw.access)
	out = binary.BigEndian.AppendUint16(out, cw.thisClass)
	out = binary.BigEndian.AppendUint16(out, cw.superClass)
	out = binary.BigEndian.AppendUint16(out, 0) // interfaces
	out = binary.BigEndian.AppendUint16(out, fieldCount)
	for _, f := range cw.fields {
		out = append(out, f...)
	}
	out = binary.BigEndian.AppendUint16(out, methodCount)
	for _, m := range cw.methods {
		out = append(out, m...)
	}
	out = binary.BigEndian.AppendUint16(out, attrCount)
	return append(out, classAttrs...), nil
}

// count returns n as a u2 table count, recording an error past the limit.
func (cw *ClassWriter) count(n int, what string) uint16 {
	if n > maxU2 {
		cw.fail(fmt.Errorf("%w: %d %s", ErrTooLarge, n, what))
		return 0
	}
	return uint16(n)
}

func (cw *ClassWriter) fail(err error) {
	if cw.err == nil {
		cw.err = err
	}
}

func (cw *ClassWriter) appendAttribute(b []byte, name string, body []byte) []byte {
	b = binary.BigEndian.AppendUint16(b, cw.pool.utf8(name))
	b = binary.BigEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

func (cw *ClassWriter) appendElementValue(b []byte, v any) []byte {
	switch v := v.(type) {
	case int32:
		b = append(b, 'I')
		return binary.BigEndian.AppendUint16(b, cw.pool.integer(v))
	case int:
		return cw.appendElementValue(b, int32(v))
	case string:
		b = append(b, 's')
		return binary.BigEndian.AppendUint16(b, cw.pool.utf8(v))
	case []int32:
		b = append(b, '[')
		b = binary.BigEndian.AppendUint16(b, cw.count(len(v), "array values"))
		for _, x := range v {
			b = cw.appendElementValue(b, x)
		}
		return b
	case []string:
		b = append(b, '[')
		b = binary.BigEndian.AppendUint16(b, cw.count(len(v), "array values"))
		for _, x := range v {
			b = cw.appendElementValue(b, x)
		}
		return b
	default:
		panic("unsupported annotation element value")
	}
}

package jvm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a class file cannot be decoded.
var ErrMalformed = errors.New("malformed class file")

type (
	// Class is the decoded view of a class file used to inspect generated
	// accessors.
	Class struct {
		Major       uint16
		Access      uint16
		Name        string
		Super       string
		Fields      []*Member
		Methods     []*Member
		Annotations []*Annotation
	}

	// Member is a field or a method.
	Member struct {
		Access uint16
		Name   string
		Desc   string
		// Code is nil for fields.
		Code *MethodCode
	}

	// MethodCode is the decoded Code attribute of a method.
	MethodCode struct {
		MaxStack  uint16
		MaxLocals uint16
		Bytecode  []byte
		// Constants resolves the constant pool references found in the
		// bytecode, keyed by instruction offset.
		Constants map[int]string
	}

	// Annotation is a runtime-visible class annotation.
	Annotation struct {
		Type     string
		Elements map[string]any
	}

	classReader struct {
		data []byte
		pos  int
		err  error
		pool []cpEntry
	}

	cpEntry struct {
		tag  byte
		utf8 string
		i32  int32
		a, b uint16
	}
)

// Method returns the method with the given name, nil if there is none.
func (c *Class) Method(name string) *Member {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MethodOf returns the method with the given name and descriptor, nil if
// there is none.
func (c *Class) MethodOf(name, desc string) *Member {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// Annotation returns the annotation of the given type descriptor.
func (c *Class) Annotation(desc string) *Annotation {
	for _, a := range c.Annotations {
		if a.Type == desc {
			return a
		}
	}
	return nil
}

// ParseClass decodes a class file.
func ParseClass(data []byte) (*Class, error) {
	r := &classReader{data: data}
	if r.u32() != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	r.u16()
	c := &Class{Major: r.u16()}
	r.readPool()
	c.Access = r.u16()
	c.Name = r.className(r.u16())
	c.Super = r.className(r.u16())
	r.skip(2 * int(r.u16()))
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		c.Fields = append(c.Fields, r.member(false))
	}
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		c.Methods = append(c.Methods, r.member(true))
	}
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		name := r.utf8(r.u16())
		size := int(r.u32())
		end := r.pos + size
		if name == "RuntimeVisibleAnnotations" {
			for k := r.u16(); k > 0 && r.err == nil; k-- {
				c.Annotations = append(c.Annotations, r.annotation())
			}
		}
		r.pos = end
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-r.pos)
	}
	return c, nil
}

func (r *classReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
	}
}

func (r *classReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail("unexpected end of data at offset %d", r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *classReader) skip(n int) { r.take(n) }

func (r *classReader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *classReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *classReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *classReader) readPool() {
	count := int(r.u16())
	r.pool = make([]cpEntry, count)
	for i := 1; i < count && r.err == nil; i++ {
		e := cpEntry{tag: r.u8()}
		switch e.tag {
		case tagUtf8:
			s, err := decodeModifiedUTF8(r.take(int(r.u16())))
			if err != nil {
				r.fail("constant %d: %v", i, err)
			}
			e.utf8 = s
		case tagInteger:
			e.i32 = int32(r.u32())
		case tagClass, tagString:
			e.a = r.u16()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType:
			e.a, e.b = r.u16(), r.u16()
		default:
			r.fail("unsupported constant tag %d", e.tag)
		}
		r.pool[i] = e
	}
}

func (r *classReader) entry(i uint16, tag byte) cpEntry {
	if int(i) == 0 || int(i) >= len(r.pool) || r.pool[i].tag != tag {
		r.fail("constant %d is not of tag %d", i, tag)
		return cpEntry{}
	}
	return r.pool[i]
}

func (r *classReader) utf8(i uint16) string { return r.entry(i, tagUtf8).utf8 }

func (r *classReader) className(i uint16) string {
	return r.utf8(r.entry(i, tagClass).a)
}

// describe renders a constant referenced from bytecode.
func (r *classReader) describe(i uint16) string {
	if int(i) == 0 || int(i) >= len(r.pool) {
		r.fail("constant %d out of range", i)
		return ""
	}
	e := r.pool[i]
	switch e.tag {
	case tagClass:
		return r.utf8(e.a)
	case tagString:
		return fmt.Sprintf("%q", r.utf8(e.a))
	case tagFieldref, tagMethodref, tagInterfaceMethodref:
		nt := r.entry(e.b, tagNameAndType)
		return r.className(e.a) + "." + r.utf8(nt.a) + ":" + r.utf8(nt.b)
	default:
		r.fail("unexpected constant tag %d in bytecode", e.tag)
		return ""
	}
}

func (r *classReader) member(method bool) *Member {
	m := &Member{Access: r.u16(), Name: r.utf8(r.u16()), Desc: r.utf8(r.u16())}
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		name := r.utf8(r.u16())
		size := int(r.u32())
		end := r.pos + size
		if method && name == "Code" {
			m.Code = r.code()
		}
		r.pos = end
	}
	return m
}

func (r *classReader) code() *MethodCode {
	mc := &MethodCode{MaxStack: r.u16(), MaxLocals: r.u16()}
	mc.Bytecode = r.take(int(r.u32()))
	mc.Constants = make(map[int]string)
	for off := 0; off < len(mc.Bytecode) && r.err == nil; {
		op := mc.Bytecode[off]
		size := instructionSize(op)
		if size == 0 || off+size > len(mc.Bytecode) {
			r.fail("unsupported instruction 0x%02x at %d", op, off)
			break
		}
		switch {
		case op == OpLdc:
			mc.Constants[off] = r.describe(uint16(mc.Bytecode[off+1]))
		case size >= 3:
			mc.Constants[off] = r.describe(binary.BigEndian.Uint16(mc.Bytecode[off+1:]))
		}
		off += size
	}
	return mc
}

func instructionSize(op byte) int {
	switch op {
	case OpAload0, OpAload1, OpDup, OpAreturn, OpReturn:
		return 1
	case OpLdc:
		return 2
	case OpLdcW, OpGetfield, OpPutfield, OpInvokevirtual, OpInvokespecial, OpNew, OpCheckcast:
		return 3
	case OpInvokeinterface:
		return 5
	default:
		return 0
	}
}

func (r *classReader) annotation() *Annotation {
	a := &Annotation{Type: r.utf8(r.u16()), Elements: make(map[string]any)}
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		name := r.utf8(r.u16())
		a.Elements[name] = r.elementValue()
	}
	return a
}

func (r *classReader) elementValue() any {
	switch tag := r.u8(); tag {
	case 'I':
		return r.entry(r.u16(), tagInteger).i32
	case 's':
		return r.utf8(r.u16())
	case '[':
		n := int(r.u16())
		var ints []int32
		var strs []string
		for k := 0; k < n && r.err == nil; k++ {
			switch v := r.elementValue().(type) {
			case int32:
				ints = append(ints, v)
			case string:
				strs = append(strs, v)
			}
		}
		if ints != nil {
			return ints
		}
		if strs == nil {
			strs = []string{}
		}
		return strs
	default:
		r.fail("unsupported element value tag %q", tag)
		return nil
	}
}

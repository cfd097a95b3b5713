package jvm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
)

const (
	// maxPoolEntries bounds the pool so constant_pool_count fits a u2.
	maxPoolEntries = 0xfffe
	// maxUtf8Bytes bounds the encoded length of a CONSTANT_Utf8.
	maxUtf8Bytes = 0xffff
)

var (
	// ErrPoolOverflow is returned when a class needs more constants than
	// the class file format can index.
	ErrPoolOverflow = errors.New("constant pool overflow")
	// ErrConstantTooLong is returned when a string constant exceeds the
	// CONSTANT_Utf8 length limit.
	ErrConstantTooLong = errors.New("constant too long")
)

// constPool interns constants in insertion order. Index 0 is unused. The
// first limit violation is kept in err and later additions return 0.
type constPool struct {
	entries [][]byte
	index   map[string]uint16
	err     error
}

func newConstPool() *constPool {
	return &constPool{index: make(map[string]uint16)}
}

func (p *constPool) add(key string, entry []byte) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	if p.err != nil {
		return 0
	}
	if len(p.entries) >= maxPoolEntries {
		p.err = fmt.Errorf("%w: more than %d entries", ErrPoolOverflow, maxPoolEntries)
		return 0
	}
	p.entries = append(p.entries, entry)
	i := uint16(len(p.entries))
	p.index[key] = i
	return i
}

func (p *constPool) utf8(s string) uint16 {
	b := encodeModifiedUTF8(s)
	if len(b) > maxUtf8Bytes {
		if p.err == nil {
			p.err = fmt.Errorf("%w: %d bytes", ErrConstantTooLong, len(b))
		}
		return 0
	}
	entry := make([]byte, 3, 3+len(b))
	entry[0] = tagUtf8
	binary.BigEndian.PutUint16(entry[1:], uint16(len(b)))
	return p.add("U"+s, append(entry, b...))
}

func (p *constPool) integer(v int32) uint16 {
	entry := []byte{tagInteger, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(entry[1:], uint32(v))
	return p.add(fmt.Sprintf("I%d", v), entry)
}

func (p *constPool) class(internalName string) uint16 {
	return p.add("C"+internalName, ref1(tagClass, p.utf8(internalName)))
}

func (p *constPool) string(s string) uint16 {
	return p.add("S"+s, ref1(tagString, p.utf8(s)))
}

func (p *constPool) nameAndType(name, desc string) uint16 {
	return p.add("N"+name+"\x00"+desc, ref2(tagNameAndType, p.utf8(name), p.utf8(desc)))
}

func (p *constPool) member(tag byte, owner, name, desc string) uint16 {
	key := fmt.Sprintf("M%d%s\x00%s\x00%s", tag, owner, name, desc)
	return p.add(key, ref2(tag, p.class(owner), p.nameAndType(name, desc)))
}

func (p *constPool) bytes() []byte {
	out := binary.BigEndian.AppendUint16(nil, uint16(len(p.entries)+1))
	for _, e := range p.entries {
		out = append(out, e...)
	}
	return out
}

func ref1(tag byte, i uint16) []byte {
	return []byte{tag, byte(i >> 8), byte(i)}
}

func ref2(tag byte, i, j uint16) []byte {
	return []byte{tag, byte(i >> 8), byte(i), byte(j >> 8), byte(j)}
}

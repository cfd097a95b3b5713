package jvm

import (
	"encoding/binary"
	"strings"
)

// Opcodes emitted by Code.
const (
	OpLdc             = 0x12
	OpLdcW            = 0x13
	OpAload0          = 0x2a
	OpAload1          = 0x2b
	OpDup             = 0x59
	OpAreturn         = 0xb0
	OpReturn          = 0xb1
	OpGetfield        = 0xb4
	OpPutfield        = 0xb5
	OpInvokevirtual   = 0xb6
	OpInvokespecial   = 0xb7
	OpInvokeinterface = 0xb9
	OpNew             = 0xbb
	OpCheckcast       = 0xc0
)

// Code builds a method body and tracks its operand stack depth.
type Code struct {
	pool      *constPool
	buf       []byte
	depth     int
	maxStack  uint16
	maxLocals uint16
}

func newCode(pool *constPool, static bool, desc string) *Code {
	locals := ArgumentSlots(desc)
	if !static {
		locals++
	}
	return &Code{pool: pool, maxLocals: uint16(locals)}
}

// Aload pushes the reference in local slot 0 or 1.
func (c *Code) Aload(slot int) *Code {
	switch slot {
	case 0:
		c.op(OpAload0, 1)
	case 1:
		c.op(OpAload1, 1)
	default:
		panic("unsupported local slot")
	}
	return c
}

// New allocates an instance of class.
func (c *Code) New(class string) *Code {
	c.op(OpNew, 1)
	c.u16(c.pool.class(class))
	return c
}

// Dup duplicates the top of the stack.
func (c *Code) Dup() *Code {
	c.op(OpDup, 1)
	return c
}

// Ldc pushes a string constant.
func (c *Code) Ldc(s string) *Code {
	i := c.pool.string(s)
	if i <= 0xff {
		c.op(OpLdc, 1)
		c.buf = append(c.buf, byte(i))
		return c
	}
	c.op(OpLdcW, 1)
	c.u16(i)
	return c
}

// Getfield reads an instance field.
func (c *Code) Getfield(owner, name, desc string) *Code {
	c.op(OpGetfield, 0)
	c.u16(c.pool.member(tagFieldref, owner, name, desc))
	return c
}

// Putfield writes an instance field.
func (c *Code) Putfield(owner, name, desc string) *Code {
	c.op(OpPutfield, -2)
	c.u16(c.pool.member(tagFieldref, owner, name, desc))
	return c
}

// Invokespecial calls a constructor or private method.
func (c *Code) Invokespecial(owner, name, desc string) *Code {
	c.op(OpInvokespecial, invokeDelta(desc, true))
	c.u16(c.pool.member(tagMethodref, owner, name, desc))
	return c
}

// Invokevirtual calls a class method.
func (c *Code) Invokevirtual(owner, name, desc string) *Code {
	c.op(OpInvokevirtual, invokeDelta(desc, true))
	c.u16(c.pool.member(tagMethodref, owner, name, desc))
	return c
}

// Invokeinterface calls an interface method.
func (c *Code) Invokeinterface(owner, name, desc string) *Code {
	c.op(OpInvokeinterface, invokeDelta(desc, true))
	c.u16(c.pool.member(tagInterfaceMethodref, owner, name, desc))
	c.buf = append(c.buf, byte(ArgumentSlots(desc)+1), 0)
	return c
}

// Checkcast narrows the reference on top of the stack.
func (c *Code) Checkcast(class string) *Code {
	c.op(OpCheckcast, 0)
	c.u16(c.pool.class(class))
	return c
}

// Areturn returns the reference on top of the stack.
func (c *Code) Areturn() *Code {
	c.op(OpAreturn, -1)
	return c
}

// Return returns void.
func (c *Code) Return() *Code {
	c.op(OpReturn, 0)
	return c
}

func (c *Code) op(opcode byte, delta int) {
	c.buf = append(c.buf, opcode)
	c.depth += delta
	if c.depth > int(c.maxStack) {
		c.maxStack = uint16(c.depth)
	}
}

func (c *Code) u16(v uint16) {
	c.buf = binary.BigEndian.AppendUint16(c.buf, v)
}

func invokeDelta(desc string, hasReceiver bool) int {
	delta := -ArgumentSlots(desc)
	if hasReceiver {
		delta--
	}
	switch ret := desc[strings.LastIndexByte(desc, ')')+1:]; ret {
	case "V":
	case "J", "D":
		delta += 2
	default:
		delta++
	}
	return delta
}

// ArgumentSlots returns the number of local variable slots taken by the
// parameters of a method descriptor.
func ArgumentSlots(desc string) int {
	n := 0
	for i := 1; i < len(desc) && desc[i] != ')'; i++ {
		switch desc[i] {
		case 'J', 'D':
			n += 2
		case 'L':
			i += strings.IndexByte(desc[i:], ';')
			n++
		case '[':
			for desc[i] == '[' {
				i++
			}
			if desc[i] == 'L' {
				i += strings.IndexByte(desc[i:], ';')
			}
			n++
		default:
			n++
		}
	}
	return n
}

// MethodDescriptor builds a descriptor taking the given reference
// parameters and returning ret. An empty ret means void.
func MethodDescriptor(ret string, params ...string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(ObjectDescriptor(p))
	}
	sb.WriteByte(')')
	if ret == "" {
		sb.WriteByte('V')
	} else {
		sb.WriteString(ObjectDescriptor(ret))
	}
	return sb.String()
}

// ObjectDescriptor returns the field descriptor of an internal class name.
func ObjectDescriptor(internalName string) string {
	return "L" + internalName + ";"
}

package jvm

import (
	"fmt"
	"sort"
	"strings"
)

var mnemonics = map[byte]string{
	OpLdc:             "ldc",
	OpLdcW:            "ldc_w",
	OpAload0:          "aload_0",
	OpAload1:          "aload_1",
	OpDup:             "dup",
	OpAreturn:         "areturn",
	OpReturn:          "return",
	OpGetfield:        "getfield",
	OpPutfield:        "putfield",
	OpInvokevirtual:   "invokevirtual",
	OpInvokespecial:   "invokespecial",
	OpInvokeinterface: "invokeinterface",
	OpNew:             "new",
	OpCheckcast:       "checkcast",
}

// Instructions renders the bytecode one instruction per entry, with
// constant pool operands resolved.
func (mc *MethodCode) Instructions() []string {
	var out []string
	for off := 0; off < len(mc.Bytecode); {
		op := mc.Bytecode[off]
		line := mnemonics[op]
		if c, ok := mc.Constants[off]; ok {
			line += " " + c
		}
		out = append(out, line)
		size := instructionSize(op)
		if size == 0 {
			break
		}
		off += size
	}
	return out
}

// Disassemble renders a class in a stable textual form, similar to
// javap output, for golden comparisons.
func Disassemble(c *Class) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s extends %s (version %d, access 0x%04x)\n", c.Name, c.Super, c.Major, c.Access)
	for _, a := range c.Annotations {
		fmt.Fprintf(&sb, "  @%s\n", a.Type)
		keys := make([]string, 0, len(a.Elements))
		for k := range a.Elements {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "    %s = %q\n", k, fmt.Sprint(a.Elements[k]))
		}
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&sb, "  field 0x%04x %s %s\n", f.Access, f.Name, f.Desc)
	}
	for _, m := range c.Methods {
		fmt.Fprintf(&sb, "  method 0x%04x %s%s\n", m.Access, m.Name, m.Desc)
		if m.Code == nil {
			continue
		}
		fmt.Fprintf(&sb, "    stack=%d locals=%d\n", m.Code.MaxStack, m.Code.MaxLocals)
		for _, ins := range m.Code.Instructions() {
			fmt.Fprintf(&sb, "    %s\n", ins)
		}
	}
	return sb.String()
}

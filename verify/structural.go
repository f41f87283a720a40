package verify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// Structural checks that classBytes is a well-formed class file: it must
// parse, every method body must decode with in-range exception handler PCs,
// and the parsed form must serialize back to the identical bytes. Returned
// errors carry the accumulated diagnostics.
func Structural(classBytes []byte) error {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return err
	}

	var diags []string
	for i := range cf.Methods {
		m := &cf.Methods[i]
		name, err := cf.Pool.Utf8(m.NameIndex)
		if err != nil {
			diags = append(diags, err.Error())
			continue
		}
		attr := cf.CodeAttribute(m)
		if attr == nil {
			continue
		}
		code, err := classfile.ParseCode(attr.Info, cf.Pool)
		if err != nil {
			diags = append(diags, fmt.Sprintf("method %s: %v", name, err))
			continue
		}
		if len(code.Bytecode) == 0 {
			diags = append(diags, fmt.Sprintf("method %s: empty code array", name))
		}
		for _, h := range code.Handlers {
			if int(h.StartPC) >= len(code.Bytecode) || int(h.EndPC) > len(code.Bytecode) ||
				int(h.HandlerPC) >= len(code.Bytecode) || h.StartPC >= h.EndPC {
				diags = append(diags, fmt.Sprintf("method %s: exception handler out of range", name))
			}
			if h.CatchType != 0 {
				if e := cf.Pool.Entry(h.CatchType); e == nil || e.Tag != format.TagClass {
					diags = append(diags, fmt.Sprintf("method %s: bad catch type index %d", name, h.CatchType))
				}
			}
		}
	}

	if !bytes.Equal(classfile.Serialize(cf), classBytes) {
		diags = append(diags, "serialized form does not round-trip")
	}

	if len(diags) > 0 {
		return fmt.Errorf("verify: structural check failed: %s", strings.Join(diags, "; "))
	}
	return nil
}

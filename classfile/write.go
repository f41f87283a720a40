package classfile

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// Serialize emits the class file back to bytes. It never fails once Parse
// succeeded and edits kept pool indices valid; sections the caller did not
// touch come out byte-for-byte identical to the input.
func Serialize(cf *ClassFile) []byte {
	// Size estimate: header + pool payloads + member tables. Exact sizing is
	// not worth the bookkeeping; append handles growth.
	out := make([]byte, 0, 64+poolSize(cf.Pool))

	out = buf.PutU32BE(out, format.Magic)
	out = buf.PutU16BE(out, cf.MinorVersion)
	out = buf.PutU16BE(out, cf.MajorVersion)

	out = buf.PutU16BE(out, uint16(len(cf.Pool.Entries)+1))
	for i := range cf.Pool.Entries {
		e := &cf.Pool.Entries[i]
		if e.Tag == 0 {
			continue // hidden slot after Long/Double
		}
		out = append(out, e.Tag)
		if e.Tag == format.TagUtf8 {
			out = buf.PutU16BE(out, uint16(len(e.Data)))
		}
		out = append(out, e.Data...)
	}

	out = buf.PutU16BE(out, cf.AccessFlags)
	out = buf.PutU16BE(out, cf.ThisClass)
	out = buf.PutU16BE(out, cf.SuperClass)

	out = buf.PutU16BE(out, uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		out = buf.PutU16BE(out, idx)
	}

	out = writeMembers(out, cf.Fields)
	out = writeMembers(out, cf.Methods)
	out = writeAttributes(out, cf.Attributes)
	return out
}

func poolSize(p *ConstPool) int {
	n := 0
	for i := range p.Entries {
		n += 3 + len(p.Entries[i].Data)
	}
	return n
}

func writeMembers(out []byte, members []Member) []byte {
	out = buf.PutU16BE(out, uint16(len(members)))
	for i := range members {
		m := &members[i]
		out = buf.PutU16BE(out, m.AccessFlags)
		out = buf.PutU16BE(out, m.NameIndex)
		out = buf.PutU16BE(out, m.DescriptorIndex)
		out = writeAttributes(out, m.Attributes)
	}
	return out
}

func writeAttributes(out []byte, attrs []Attribute) []byte {
	out = buf.PutU16BE(out, uint16(len(attrs)))
	for i := range attrs {
		a := &attrs[i]
		out = buf.PutU16BE(out, a.NameIndex)
		out = buf.PutU32BE(out, uint32(len(a.Info)))
		out = append(out, a.Info...)
	}
	return out
}

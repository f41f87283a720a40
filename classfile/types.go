package classfile

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// ClassFile is the parsed, editable form of a class file. Field order mirrors
// the on-disk layout; Serialize walks it top to bottom.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         *ConstPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Member is a field_info or method_info record. The two share a layout.
type Member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Attribute is a named attribute with raw content. Attributes the codec does
// not recognize keep their bytes untouched.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// CPEntry is one constant pool slot. Data holds the payload bytes following
// the tag, except for Utf8 entries where Data is the string bytes without the
// length prefix (the prefix is derived on write). A zero Tag marks the hidden
// slot after a Long or Double entry.
type CPEntry struct {
	Tag  byte
	Data []byte
}

// ConstPool is the constant pool, indexed from 1. Entries holds slots
// 1..len(Entries); hidden slots after Long/Double entries appear as zero-tag
// placeholders so indices stay aligned with the file.
type ConstPool struct {
	Entries []CPEntry
}

// Slots returns the number of occupied pool slots (including hidden ones).
func (p *ConstPool) Slots() int { return len(p.Entries) }

// Entry returns the entry at pool index idx (1-based), or nil when idx is out
// of range or points at a hidden slot.
func (p *ConstPool) Entry(idx uint16) *CPEntry {
	if idx == 0 || int(idx) > len(p.Entries) {
		return nil
	}
	e := &p.Entries[idx-1]
	if e.Tag == 0 {
		return nil
	}
	return e
}

// ThisClassName resolves the internal name of the class (e.g. "com/foo/Bar").
func (cf *ClassFile) ThisClassName() (string, error) {
	return cf.Pool.ClassName(cf.ThisClass)
}

// ClinitMethod returns the static initializer, or nil when the class has none.
func (cf *ClassFile) ClinitMethod() *Member {
	for i := range cf.Methods {
		name, err := cf.Pool.Utf8(cf.Methods[i].NameIndex)
		if err != nil {
			continue
		}
		desc, err := cf.Pool.Utf8(cf.Methods[i].DescriptorIndex)
		if err != nil {
			continue
		}
		if name == format.ClinitName && desc == format.ClinitDescriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

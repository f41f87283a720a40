package classfile

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// AttributeName resolves an attribute's name through the pool.
func (cf *ClassFile) AttributeName(a *Attribute) (string, error) {
	return cf.Pool.Utf8(a.NameIndex)
}

// FindClassAttribute returns the first class-level attribute with the given
// name, or nil.
func (cf *ClassFile) FindClassAttribute(name string) *Attribute {
	for i := range cf.Attributes {
		n, err := cf.AttributeName(&cf.Attributes[i])
		if err == nil && n == name {
			return &cf.Attributes[i]
		}
	}
	return nil
}

// RemoveClassAttributes drops every class-level attribute with the given name
// and reports how many were removed. The pool entry for the name stays; pool
// growth is monotonic.
func (cf *ClassFile) RemoveClassAttributes(name string) int {
	kept := cf.Attributes[:0]
	removed := 0
	for i := range cf.Attributes {
		n, err := cf.AttributeName(&cf.Attributes[i])
		if err == nil && n == name {
			removed++
			continue
		}
		kept = append(kept, cf.Attributes[i])
	}
	cf.Attributes = kept
	return removed
}

// AppendAttribute interns the attribute name and appends a class-level
// attribute carrying info.
func (cf *ClassFile) AppendAttribute(name string, info []byte) error {
	nameIdx, err := cf.Pool.InternUtf8(name)
	if err != nil {
		return err
	}
	cf.Attributes = append(cf.Attributes, Attribute{NameIndex: nameIdx, Info: info})
	return nil
}

// AppendField interns name and descriptor and appends a field with the given
// access flags and no attributes.
func (cf *ClassFile) AppendField(access uint16, name, descriptor string) error {
	nameIdx, err := cf.Pool.InternUtf8(name)
	if err != nil {
		return err
	}
	descIdx, err := cf.Pool.InternUtf8(descriptor)
	if err != nil {
		return err
	}
	cf.Fields = append(cf.Fields, Member{
		AccessFlags:     access,
		NameIndex:       nameIdx,
		DescriptorIndex: descIdx,
	})
	return nil
}

// CodeAttribute returns the member's Code attribute, or nil for abstract and
// native methods.
func (cf *ClassFile) CodeAttribute(m *Member) *Attribute {
	for i := range m.Attributes {
		n, err := cf.AttributeName(&m.Attributes[i])
		if err == nil && n == format.AttrCode {
			return &m.Attributes[i]
		}
	}
	return nil
}

package classfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// ErrPoolFull indicates an insert would push the constant pool past 65534
// usable slots.
var ErrPoolFull = errors.New("classfile: constant pool full")

// Utf8 resolves a Utf8 entry to its decoded string.
func (p *ConstPool) Utf8(idx uint16) (string, error) {
	e := p.Entry(idx)
	if e == nil || e.Tag != format.TagUtf8 {
		return "", fmt.Errorf("pool index %d: %w", idx, format.ErrBadIndex)
	}
	s, err := format.DecodeMUTF8(e.Data)
	if err != nil {
		return "", fmt.Errorf("pool index %d: %w", idx, err)
	}
	return s, nil
}

// Integer resolves an Integer entry to its signed value.
func (p *ConstPool) Integer(idx uint16) (int32, error) {
	e := p.Entry(idx)
	if e == nil || e.Tag != format.TagInteger {
		return 0, fmt.Errorf("pool index %d: %w", idx, format.ErrBadIndex)
	}
	return buf.I32BE(e.Data), nil
}

// ClassName resolves a Class entry to the internal name it references.
func (p *ConstPool) ClassName(idx uint16) (string, error) {
	e := p.Entry(idx)
	if e == nil || e.Tag != format.TagClass {
		return "", fmt.Errorf("pool index %d: %w", idx, format.ErrBadIndex)
	}
	return p.Utf8(buf.U16BE(e.Data))
}

// Fieldref resolves a Fieldref entry to the class internal name, field name,
// and field descriptor it references.
func (p *ConstPool) Fieldref(idx uint16) (class, name, descriptor string, err error) {
	e := p.Entry(idx)
	if e == nil || e.Tag != format.TagFieldref {
		return "", "", "", fmt.Errorf("pool index %d: %w", idx, format.ErrBadIndex)
	}
	class, err = p.ClassName(buf.U16BE(e.Data))
	if err != nil {
		return "", "", "", err
	}
	nat := p.Entry(buf.U16BE(e.Data[2:]))
	if nat == nil || nat.Tag != format.TagNameAndType {
		return "", "", "", fmt.Errorf("pool index %d: %w", idx, format.ErrBadIndex)
	}
	name, err = p.Utf8(buf.U16BE(nat.Data))
	if err != nil {
		return "", "", "", err
	}
	descriptor, err = p.Utf8(buf.U16BE(nat.Data[2:]))
	if err != nil {
		return "", "", "", err
	}
	return class, name, descriptor, nil
}

// find returns the 1-based index of an entry with the given tag and payload.
func (p *ConstPool) find(tag byte, data []byte) (uint16, bool) {
	for i := range p.Entries {
		e := &p.Entries[i]
		if e.Tag == tag && bytes.Equal(e.Data, data) {
			return uint16(i + 1), true
		}
	}
	return 0, false
}

// add appends a new entry, plus a hidden slot when wide is true. Fails with
// ErrPoolFull when the pool cannot take the required slots.
func (p *ConstPool) add(tag byte, data []byte, wide bool) (uint16, error) {
	need := 1
	if wide {
		need = 2
	}
	if len(p.Entries)+need > format.MaxPoolEntries {
		return 0, ErrPoolFull
	}
	p.Entries = append(p.Entries, CPEntry{Tag: tag, Data: data})
	idx := uint16(len(p.Entries))
	if wide {
		p.Entries = append(p.Entries, CPEntry{})
	}
	return idx, nil
}

// InternUtf8 returns the index of a Utf8 entry for s, appending one only when
// no equal entry exists.
func (p *ConstPool) InternUtf8(s string) (uint16, error) {
	data, err := format.EncodeMUTF8(s)
	if err != nil {
		return 0, err
	}
	if idx, ok := p.find(format.TagUtf8, data); ok {
		return idx, nil
	}
	return p.add(format.TagUtf8, data, false)
}

// InternInteger returns the index of an Integer entry holding v.
func (p *ConstPool) InternInteger(v int32) (uint16, error) {
	data := buf.PutU32BE(nil, uint32(v))
	if idx, ok := p.find(format.TagInteger, data); ok {
		return idx, nil
	}
	return p.add(format.TagInteger, data, false)
}

// InternLong returns the index of a Long entry holding v. Long entries occupy
// two pool slots.
func (p *ConstPool) InternLong(v int64) (uint16, error) {
	data := buf.PutU64BE(nil, uint64(v))
	if idx, ok := p.find(format.TagLong, data); ok {
		return idx, nil
	}
	return p.add(format.TagLong, data, true)
}

// InternClass returns the index of a Class entry naming the given internal name.
func (p *ConstPool) InternClass(name string) (uint16, error) {
	nameIdx, err := p.InternUtf8(name)
	if err != nil {
		return 0, err
	}
	data := buf.PutU16BE(nil, nameIdx)
	if idx, ok := p.find(format.TagClass, data); ok {
		return idx, nil
	}
	return p.add(format.TagClass, data, false)
}

// InternNameAndType returns the index of a NameAndType entry.
func (p *ConstPool) InternNameAndType(name, descriptor string) (uint16, error) {
	nameIdx, err := p.InternUtf8(name)
	if err != nil {
		return 0, err
	}
	descIdx, err := p.InternUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	data := buf.PutU16BE(buf.PutU16BE(nil, nameIdx), descIdx)
	if idx, ok := p.find(format.TagNameAndType, data); ok {
		return idx, nil
	}
	return p.add(format.TagNameAndType, data, false)
}

// InternMethodref returns the index of a Methodref entry for a method of the
// named class.
func (p *ConstPool) InternMethodref(class, name, descriptor string) (uint16, error) {
	classIdx, err := p.InternClass(class)
	if err != nil {
		return 0, err
	}
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	data := buf.PutU16BE(buf.PutU16BE(nil, classIdx), natIdx)
	if idx, ok := p.find(format.TagMethodref, data); ok {
		return idx, nil
	}
	return p.add(format.TagMethodref, data, false)
}

// InternFieldref returns the index of a Fieldref entry for a field of the
// named class.
func (p *ConstPool) InternFieldref(class, name, descriptor string) (uint16, error) {
	classIdx, err := p.InternClass(class)
	if err != nil {
		return 0, err
	}
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	data := buf.PutU16BE(buf.PutU16BE(nil, classIdx), natIdx)
	if idx, ok := p.find(format.TagFieldref, data); ok {
		return idx, nil
	}
	return p.add(format.TagFieldref, data, false)
}

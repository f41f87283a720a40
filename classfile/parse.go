package classfile

import (
	"errors"
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// ParseError reports the file offset at which parsing failed.
type ParseError struct {
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classfile: parse error at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(off int, err error) error {
	return &ParseError{Offset: off, Err: err}
}

// reader walks a byte slice with bounds-checked reads.
type reader struct {
	b   []byte
	off int
}

func (r *reader) u8() (byte, error) {
	if !buf.Has(r.b, r.off, 1) {
		return 0, parseErr(r.off, format.ErrTruncated)
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	s, ok := buf.Slice(r.b, r.off, 2)
	if !ok {
		return 0, parseErr(r.off, format.ErrTruncated)
	}
	r.off += 2
	return buf.U16BE(s), nil
}

func (r *reader) u32() (uint32, error) {
	s, ok := buf.Slice(r.b, r.off, 4)
	if !ok {
		return 0, parseErr(r.off, format.ErrTruncated)
	}
	r.off += 4
	return buf.U32BE(s), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	s, ok := buf.Slice(r.b, r.off, n)
	if !ok {
		return nil, parseErr(r.off, format.ErrTruncated)
	}
	r.off += n
	// Copy so edits to the model never alias the caller's input.
	out := make([]byte, n)
	copy(out, s)
	return out, nil
}

// Parse decodes class bytes into an editable ClassFile. It fails on short
// input, a magic mismatch, an unsupported version, a malformed constant pool,
// or a truncated member table.
func Parse(b []byte) (*ClassFile, error) {
	r := &reader{b: b}

	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != format.Magic {
		return nil, parseErr(0, fmt.Errorf("%w: 0x%08X", format.ErrMagicMismatch, magic))
	}
	minor, err := r.u16()
	if err != nil {
		return nil, err
	}
	major, err := r.u16()
	if err != nil {
		return nil, err
	}
	if major < format.MinMajorVersion || major > format.MaxMajorVersion {
		return nil, parseErr(6, fmt.Errorf("%w: %d.%d", format.ErrVersion, major, minor))
	}

	pool, err := parsePool(r)
	if err != nil {
		return nil, err
	}

	access, err := r.u16()
	if err != nil {
		return nil, err
	}
	thisClass, err := r.u16()
	if err != nil {
		return nil, err
	}
	if e := pool.Entry(thisClass); e == nil || e.Tag != format.TagClass {
		return nil, parseErr(r.off-2, fmt.Errorf("this_class %d: %w", thisClass, format.ErrBadIndex))
	}
	superClass, err := r.u16()
	if err != nil {
		return nil, err
	}
	if superClass != 0 {
		if e := pool.Entry(superClass); e == nil || e.Tag != format.TagClass {
			return nil, parseErr(r.off-2, fmt.Errorf("super_class %d: %w", superClass, format.ErrBadIndex))
		}
	}

	ifaceCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u16()
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, idx)
	}

	fields, err := parseMembers(r, pool)
	if err != nil {
		return nil, err
	}
	methods, err := parseMembers(r, pool)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(r, pool)
	if err != nil {
		return nil, err
	}

	if r.off != len(b) {
		return nil, parseErr(r.off, errors.New("trailing bytes after class structure"))
	}

	return &ClassFile{
		MinorVersion: minor,
		MajorVersion: major,
		Pool:         pool,
		AccessFlags:  access,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   attrs,
	}, nil
}

func parsePool(r *reader) (*ConstPool, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, parseErr(r.off-2, errors.New("constant pool count is zero"))
	}
	pool := &ConstPool{Entries: make([]CPEntry, 0, count-1)}
	for len(pool.Entries) < int(count)-1 {
		tagOff := r.off
		tag, err := r.u8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case format.TagUtf8:
			n, err := r.u16()
			if err != nil {
				return nil, err
			}
			data, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			if _, err := format.DecodeMUTF8(data); err != nil {
				return nil, parseErr(tagOff, err)
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data})
		case format.TagInteger, format.TagFloat:
			data, err := r.bytes(4)
			if err != nil {
				return nil, err
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data})
		case format.TagLong, format.TagDouble:
			data, err := r.bytes(8)
			if err != nil {
				return nil, err
			}
			if len(pool.Entries)+2 > int(count)-1 {
				return nil, parseErr(tagOff, errors.New("wide constant overruns pool count"))
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data}, CPEntry{})
		case format.TagClass, format.TagString, format.TagMethodType,
			format.TagModule, format.TagPackage:
			data, err := r.bytes(2)
			if err != nil {
				return nil, err
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data})
		case format.TagFieldref, format.TagMethodref, format.TagInterfaceMethodref,
			format.TagNameAndType, format.TagDynamic, format.TagInvokeDynamic:
			data, err := r.bytes(4)
			if err != nil {
				return nil, err
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data})
		case format.TagMethodHandle:
			data, err := r.bytes(3)
			if err != nil {
				return nil, err
			}
			pool.Entries = append(pool.Entries, CPEntry{Tag: tag, Data: data})
		default:
			return nil, parseErr(tagOff, fmt.Errorf("%w: %d", format.ErrBadTag, tag))
		}
	}
	return pool, nil
}

func parseMembers(r *reader, pool *ConstPool) ([]Member, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, count)
	for i := 0; i < int(count); i++ {
		access, err := r.u16()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u16()
		if err != nil {
			return nil, err
		}
		if e := pool.Entry(nameIdx); e == nil || e.Tag != format.TagUtf8 {
			return nil, parseErr(r.off-2, fmt.Errorf("member name %d: %w", nameIdx, format.ErrBadIndex))
		}
		descIdx, err := r.u16()
		if err != nil {
			return nil, err
		}
		if e := pool.Entry(descIdx); e == nil || e.Tag != format.TagUtf8 {
			return nil, parseErr(r.off-2, fmt.Errorf("member descriptor %d: %w", descIdx, format.ErrBadIndex))
		}
		attrs, err := parseAttributes(r, pool)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{
			AccessFlags:     access,
			NameIndex:       nameIdx,
			DescriptorIndex: descIdx,
			Attributes:      attrs,
		})
	}
	return members, nil
}

func parseAttributes(r *reader, pool *ConstPool) ([]Attribute, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u16()
		if err != nil {
			return nil, err
		}
		if e := pool.Entry(nameIdx); e == nil || e.Tag != format.TagUtf8 {
			return nil, parseErr(r.off-2, fmt.Errorf("attribute name %d: %w", nameIdx, format.ErrBadIndex))
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		info, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{NameIndex: nameIdx, Info: info})
	}
	return attrs, nil
}

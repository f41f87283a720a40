package classfile

import (
	"errors"
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// Code is the decoded form of a Code attribute.
type Code struct {
	MaxStack   uint16
	MaxLocals  uint16
	Bytecode   []byte
	Handlers   []ExceptionHandler
	Attributes []Attribute
}

// ExceptionHandler is one exception_table entry. All PCs are offsets into the
// method's bytecode.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// ParseCode decodes a Code attribute's info bytes.
func ParseCode(info []byte, pool *ConstPool) (*Code, error) {
	r := &reader{b: info}
	maxStack, err := r.u16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u16()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	bytecode, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	handlerCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	handlers := make([]ExceptionHandler, 0, handlerCount)
	for i := 0; i < int(handlerCount); i++ {
		var h ExceptionHandler
		if h.StartPC, err = r.u16(); err != nil {
			return nil, err
		}
		if h.EndPC, err = r.u16(); err != nil {
			return nil, err
		}
		if h.HandlerPC, err = r.u16(); err != nil {
			return nil, err
		}
		if h.CatchType, err = r.u16(); err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	attrs, err := parseAttributes(r, pool)
	if err != nil {
		return nil, err
	}
	if r.off != len(info) {
		return nil, parseErr(r.off, errors.New("trailing bytes in Code attribute"))
	}
	return &Code{
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Bytecode:   bytecode,
		Handlers:   handlers,
		Attributes: attrs,
	}, nil
}

// Encode serializes the Code structure back to attribute info bytes.
func (c *Code) Encode() []byte {
	out := make([]byte, 0, 12+len(c.Bytecode)+8*len(c.Handlers))
	out = buf.PutU16BE(out, c.MaxStack)
	out = buf.PutU16BE(out, c.MaxLocals)
	out = buf.PutU32BE(out, uint32(len(c.Bytecode)))
	out = append(out, c.Bytecode...)
	out = buf.PutU16BE(out, uint16(len(c.Handlers)))
	for _, h := range c.Handlers {
		out = buf.PutU16BE(out, h.StartPC)
		out = buf.PutU16BE(out, h.EndPC)
		out = buf.PutU16BE(out, h.HandlerPC)
		out = buf.PutU16BE(out, h.CatchType)
	}
	out = writeAttributes(out, c.Attributes)
	return out
}

// PrefixFrame describes one stack map frame inside an injected code prefix.
// Offset is the bytecode offset of the frame within the prefix. Append holds
// pre-encoded verification_type_info entries added on top of the previous
// frame's locals; nil means a same_frame.
type PrefixFrame struct {
	Offset int
	Append [][]byte
}

// PrependClinit prepends prefix to the static initializer's bytecode,
// creating the method when the class has none. Exception handler PCs, debug
// tables, and StackMapTable frames of the existing body are shifted or
// respliced so the method still verifies; max_stack and max_locals become the
// maximum of the existing values and the supplied ones.
//
// The caller must pad prefix to a multiple of 4 bytes (nop), otherwise the
// alignment padding of any tableswitch/lookupswitch in the existing body
// would change and corrupt the method.
func (cf *ClassFile) PrependClinit(prefix []byte, frames []PrefixFrame, maxStack, maxLocals uint16) error {
	if len(prefix)%4 != 0 {
		return errors.New("classfile: clinit prefix not 4-byte aligned")
	}
	wantFrames := cf.MajorVersion >= format.MajorVersionStackMaps

	m := cf.ClinitMethod()
	if m == nil {
		return cf.appendClinit(prefix, frames, maxStack, maxLocals, wantFrames)
	}

	codeAttr := cf.CodeAttribute(m)
	if codeAttr == nil {
		return errors.New("classfile: static initializer has no Code attribute")
	}
	code, err := ParseCode(codeAttr.Info, cf.Pool)
	if err != nil {
		return err
	}

	shift := len(prefix)
	merged := make([]byte, 0, shift+len(code.Bytecode))
	merged = append(merged, prefix...)
	merged = append(merged, code.Bytecode...)
	code.Bytecode = merged
	if maxStack > code.MaxStack {
		code.MaxStack = maxStack
	}
	if maxLocals > code.MaxLocals {
		code.MaxLocals = maxLocals
	}
	for i := range code.Handlers {
		code.Handlers[i].StartPC += uint16(shift)
		code.Handlers[i].EndPC += uint16(shift)
		code.Handlers[i].HandlerPC += uint16(shift)
	}
	if err := cf.shiftCodeTables(code, uint16(shift)); err != nil {
		return err
	}
	if wantFrames {
		if err := cf.spliceStackMap(code, frames, shift); err != nil {
			return err
		}
	}
	codeAttr.Info = code.Encode()
	return nil
}

// appendClinit creates a fresh <clinit> whose body is prefix followed by a
// return instruction.
func (cf *ClassFile) appendClinit(prefix []byte, frames []PrefixFrame, maxStack, maxLocals uint16, wantFrames bool) error {
	body := make([]byte, 0, len(prefix)+1)
	body = append(body, prefix...)
	body = append(body, format.OpReturn)

	code := &Code{
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		Bytecode:  body,
	}
	if wantFrames && len(frames) > 0 {
		info := encodePrefixFrames(frames)
		nameIdx, err := cf.Pool.InternUtf8(format.AttrStackMapTable)
		if err != nil {
			return err
		}
		code.Attributes = append(code.Attributes, Attribute{NameIndex: nameIdx, Info: info})
	}

	codeName, err := cf.Pool.InternUtf8(format.AttrCode)
	if err != nil {
		return err
	}
	nameIdx, err := cf.Pool.InternUtf8(format.ClinitName)
	if err != nil {
		return err
	}
	descIdx, err := cf.Pool.InternUtf8(format.ClinitDescriptor)
	if err != nil {
		return err
	}
	cf.Methods = append(cf.Methods, Member{
		AccessFlags:     format.AccStatic,
		NameIndex:       nameIdx,
		DescriptorIndex: descIdx,
		Attributes: []Attribute{{
			NameIndex: codeName,
			Info:      code.Encode(),
		}},
	})
	return nil
}

// shiftCodeTables bumps the start_pc fields of LineNumberTable,
// LocalVariableTable, and LocalVariableTypeTable entries by shift. These are
// debug-only attributes; other code-level attributes except StackMapTable are
// left untouched.
func (cf *ClassFile) shiftCodeTables(code *Code, shift uint16) error {
	for i := range code.Attributes {
		name, err := cf.AttributeName(&code.Attributes[i])
		if err != nil {
			return err
		}
		switch name {
		case "LineNumberTable":
			info := code.Attributes[i].Info
			if len(info) < 2 {
				return fmt.Errorf("LineNumberTable: %w", format.ErrTruncated)
			}
			count := int(buf.U16BE(info))
			if _, err := buf.CheckListBounds(len(info), 2, count, 4); err != nil {
				return fmt.Errorf("LineNumberTable: %w", err)
			}
			for j := 0; j < count; j++ {
				off := 2 + j*4
				pc := buf.U16BE(info[off:]) + shift
				info[off] = byte(pc >> 8)
				info[off+1] = byte(pc)
			}
		case "LocalVariableTable", "LocalVariableTypeTable":
			info := code.Attributes[i].Info
			if len(info) < 2 {
				return fmt.Errorf("%s: %w", name, format.ErrTruncated)
			}
			count := int(buf.U16BE(info))
			if _, err := buf.CheckListBounds(len(info), 2, count, 10); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			for j := 0; j < count; j++ {
				off := 2 + j*10
				pc := buf.U16BE(info[off:]) + shift
				info[off] = byte(pc >> 8)
				info[off+1] = byte(pc)
			}
		}
	}
	return nil
}

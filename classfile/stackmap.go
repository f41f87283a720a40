package classfile

import (
	"errors"
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// Stack map frames are delta-encoded against each other, with the method
// entry as the implicit initial frame. Prepending code therefore cannot just
// shift offsets: the injected frames are emitted first, then a full_frame
// with empty locals and stack is placed at the original entry so the
// pre-existing frames keep their meaning relative to it. A <clinit> has no
// arguments, so the empty full_frame is exactly the implicit initial frame
// the old entries were computed against.

// encodePrefixFrames serializes frames as a complete StackMapTable info block.
func encodePrefixFrames(frames []PrefixFrame) []byte {
	out := buf.PutU16BE(nil, uint16(len(frames)))
	prevBci := -1
	for _, f := range frames {
		out = appendPrefixFrame(out, f, &prevBci)
	}
	return out
}

func appendPrefixFrame(out []byte, f PrefixFrame, prevBci *int) []byte {
	delta := f.Offset - *prevBci - 1
	*prevBci = f.Offset
	if f.Append == nil {
		if delta <= format.FrameSameMax {
			return append(out, byte(delta))
		}
		out = append(out, format.FrameSameExtended)
		return buf.PutU16BE(out, uint16(delta))
	}
	out = append(out, byte(format.FrameAppendMin-1+len(f.Append)))
	out = buf.PutU16BE(out, uint16(delta))
	for _, vt := range f.Append {
		out = append(out, vt...)
	}
	return out
}

// appendEmptyFullFrame emits a full_frame with no locals and no stack at bci.
func appendEmptyFullFrame(out []byte, bci int, prevBci *int) []byte {
	delta := bci - *prevBci - 1
	*prevBci = bci
	out = append(out, format.FrameFull)
	out = buf.PutU16BE(out, uint16(delta))
	out = buf.PutU16BE(out, 0)
	return buf.PutU16BE(out, 0)
}

// spliceStackMap rewrites the method's StackMapTable after prefix bytes were
// inserted at offset 0. frames describes the branch targets inside the prefix.
func (cf *ClassFile) spliceStackMap(code *Code, frames []PrefixFrame, shift int) error {
	var attr *Attribute
	for i := range code.Attributes {
		name, err := cf.AttributeName(&code.Attributes[i])
		if err != nil {
			return err
		}
		if name == format.AttrStackMapTable {
			attr = &code.Attributes[i]
			break
		}
	}

	if attr == nil {
		// No pre-existing frames: the old body has no branch targets, so the
		// injected frames stand alone.
		if len(frames) == 0 {
			return nil
		}
		nameIdx, err := cf.Pool.InternUtf8(format.AttrStackMapTable)
		if err != nil {
			return err
		}
		code.Attributes = append(code.Attributes, Attribute{
			NameIndex: nameIdx,
			Info:      encodePrefixFrames(frames),
		})
		return nil
	}

	info := attr.Info
	if len(info) < 2 {
		return fmt.Errorf("StackMapTable: %w", format.ErrTruncated)
	}
	oldCount := int(buf.U16BE(info))
	if oldCount == 0 {
		attr.Info = encodePrefixFrames(frames)
		return nil
	}

	first, err := parseFrame(info[2:])
	if err != nil {
		return err
	}
	rest := info[2+first.size:]

	prevBci := -1
	out := buf.PutU16BE(nil, 0) // count patched below
	count := 0
	for _, f := range frames {
		out = appendPrefixFrame(out, f, &prevBci)
		count++
	}

	if first.bciDelta == 0 {
		// The old body's first frame sits at its entry, which is where the
		// reset frame would go. Fold the two: re-emit the old frame as a
		// full_frame computed against the empty initial state.
		locals, stack, err := first.absoluteFromEmpty()
		if err != nil {
			return err
		}
		delta := shift - prevBci - 1
		prevBci = shift
		out = append(out, format.FrameFull)
		out = buf.PutU16BE(out, uint16(delta))
		out = buf.PutU16BE(out, uint16(len(locals)))
		for _, vt := range locals {
			out = append(out, vt...)
		}
		out = buf.PutU16BE(out, uint16(len(stack)))
		for _, vt := range stack {
			out = append(out, vt...)
		}
		count++
	} else {
		out = appendEmptyFullFrame(out, shift, &prevBci)
		count++
		out = append(out, reencodeWithDelta(first, first.bciDelta-1)...)
		count++
	}

	out = append(out, rest...)
	count += oldCount - 1

	out[0] = byte(count >> 8)
	out[1] = byte(count)
	attr.Info = out
	return nil
}

// frame is one parsed stack_map_frame.
type frame struct {
	kind     byte
	bciDelta int      // offset_delta (equals bci for the first table entry)
	locals   [][]byte // append/full frames: raw verification_type_info
	stack    [][]byte // same_locals_1/full frames
	size     int      // encoded size in bytes
}

func parseFrame(b []byte) (frame, error) {
	if len(b) < 1 {
		return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
	}
	kind := b[0]
	f := frame{kind: kind}
	switch {
	case kind <= format.FrameSameMax:
		f.bciDelta = int(kind)
		f.size = 1
	case kind >= format.FrameSameLocals1Min && kind < format.FrameSameLocals1Min+64:
		f.bciDelta = int(kind) - format.FrameSameLocals1Min
		vt, n, err := parseVTypes(b[1:], 1)
		if err != nil {
			return frame{}, err
		}
		f.stack = vt
		f.size = 1 + n
	case kind == format.FrameSameLocals1Ext:
		if len(b) < 3 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		f.bciDelta = int(buf.U16BE(b[1:]))
		vt, n, err := parseVTypes(b[3:], 1)
		if err != nil {
			return frame{}, err
		}
		f.stack = vt
		f.size = 3 + n
	case kind >= format.FrameChopMin && kind < format.FrameSameExtended:
		if len(b) < 3 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		f.bciDelta = int(buf.U16BE(b[1:]))
		f.size = 3
	case kind == format.FrameSameExtended:
		if len(b) < 3 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		f.bciDelta = int(buf.U16BE(b[1:]))
		f.size = 3
	case kind >= format.FrameAppendMin && kind < format.FrameFull:
		if len(b) < 3 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		f.bciDelta = int(buf.U16BE(b[1:]))
		vt, n, err := parseVTypes(b[3:], int(kind)-format.FrameAppendMin+1)
		if err != nil {
			return frame{}, err
		}
		f.locals = vt
		f.size = 3 + n
	case kind == format.FrameFull:
		if len(b) < 5 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		f.bciDelta = int(buf.U16BE(b[1:]))
		off := 3
		nLocals := int(buf.U16BE(b[off:]))
		off += 2
		vt, n, err := parseVTypes(b[off:], nLocals)
		if err != nil {
			return frame{}, err
		}
		f.locals = vt
		off += n
		if len(b) < off+2 {
			return frame{}, fmt.Errorf("stack map frame: %w", format.ErrTruncated)
		}
		nStack := int(buf.U16BE(b[off:]))
		off += 2
		vt, n, err = parseVTypes(b[off:], nStack)
		if err != nil {
			return frame{}, err
		}
		f.stack = vt
		f.size = off + n
	default:
		return frame{}, fmt.Errorf("stack map frame: reserved type %d", kind)
	}
	return f, nil
}

// parseVTypes reads count verification_type_info entries, returning each raw.
func parseVTypes(b []byte, count int) ([][]byte, int, error) {
	out := make([][]byte, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		if off >= len(b) {
			return nil, 0, fmt.Errorf("verification type: %w", format.ErrTruncated)
		}
		n := 1
		if b[off] == format.VerObject || b[off] == 8 { // Object / Uninitialized carry a u16
			n = 3
		}
		if off+n > len(b) {
			return nil, 0, fmt.Errorf("verification type: %w", format.ErrTruncated)
		}
		out = append(out, b[off:off+n])
		off += n
	}
	return out, off, nil
}

// absoluteFromEmpty resolves the frame to explicit locals and stack, assuming
// the previous frame had no locals and no stack (true for the first table
// entry of a <clinit>).
func (f frame) absoluteFromEmpty() (locals, stack [][]byte, err error) {
	switch {
	case f.kind <= format.FrameSameMax || f.kind == format.FrameSameExtended:
		return nil, nil, nil
	case f.kind >= format.FrameSameLocals1Min && f.kind < format.FrameSameLocals1Min+64,
		f.kind == format.FrameSameLocals1Ext:
		return nil, f.stack, nil
	case f.kind >= format.FrameAppendMin && f.kind < format.FrameFull:
		return f.locals, nil, nil
	case f.kind == format.FrameFull:
		return f.locals, f.stack, nil
	default: // chop against an empty frame cannot occur in valid input
		return nil, nil, errors.New("classfile: cannot resolve chop frame at method entry")
	}
}

// reencodeWithDelta re-emits a parsed frame with a new offset delta, keeping
// the frame body unchanged.
func reencodeWithDelta(f frame, delta int) []byte {
	var out []byte
	switch {
	case f.kind <= format.FrameSameMax:
		out = append(out, byte(delta))
	case f.kind >= format.FrameSameLocals1Min && f.kind < format.FrameSameLocals1Min+64:
		out = append(out, byte(format.FrameSameLocals1Min+delta))
		for _, vt := range f.stack {
			out = append(out, vt...)
		}
	case f.kind == format.FrameSameLocals1Ext:
		out = append(out, f.kind)
		out = buf.PutU16BE(out, uint16(delta))
		for _, vt := range f.stack {
			out = append(out, vt...)
		}
	case f.kind >= format.FrameChopMin && f.kind <= format.FrameSameExtended:
		out = append(out, f.kind)
		out = buf.PutU16BE(out, uint16(delta))
	case f.kind >= format.FrameAppendMin && f.kind < format.FrameFull:
		out = append(out, f.kind)
		out = buf.PutU16BE(out, uint16(delta))
		for _, vt := range f.locals {
			out = append(out, vt...)
		}
	default: // full
		out = append(out, f.kind)
		out = buf.PutU16BE(out, uint16(delta))
		out = buf.PutU16BE(out, uint16(len(f.locals)))
		for _, vt := range f.locals {
			out = append(out, vt...)
		}
		out = buf.PutU16BE(out, uint16(len(f.stack)))
		for _, vt := range f.stack {
			out = append(out, vt...)
		}
	}
	return out
}

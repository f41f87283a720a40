package conceal

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// checksumMultiplier is the long literal each table slot is multiplied by
// before being folded into the checksum accumulator.
const checksumMultiplier int64 = 31

// prefixMaxStack is the operand stack high-water mark of the emitted
// initializer prefix: in the checksum loop, just before lmul, the stack holds
// the long accumulator, the widened element, and the long literal, two slots
// each.
const prefixMaxStack = 6

// prefixMaxLocals covers locals 0-1 (long accumulator), 2 (array ref),
// and 3 (loop index).
const prefixMaxLocals = 4

// emitter assembles a bytecode sequence, interning constants as it goes.
type emitter struct {
	pool *classfile.ConstPool
	code []byte
}

func (e *emitter) op(b ...byte) {
	e.code = append(e.code, b...)
}

// pushInt emits the tightest encoding for an int constant: iconst for -1..5,
// bipush for a signed byte, sipush for a signed short, and a constant pool
// load otherwise.
func (e *emitter) pushInt(v int32) error {
	switch {
	case v >= -1 && v <= 5:
		e.op(byte(format.OpIconst0 + int(v)))
	case v >= -128 && v <= 127:
		e.op(format.OpBipush, byte(int8(v)))
	case v >= -32768 && v <= 32767:
		e.op(format.OpSipush, byte(uint16(v)>>8), byte(uint16(v)))
	default:
		idx, err := e.pool.InternInteger(v)
		if err != nil {
			return err
		}
		if idx <= 0xFF {
			e.op(format.OpLdc, byte(idx))
		} else {
			e.op(format.OpLdcW, byte(idx>>8), byte(idx))
		}
	}
	return nil
}

// emitClinitPrefix synthesizes the initializer prefix that materializes the
// table into tableField and folds every slot into checkField:
//
//	tableField = new int[] { ... };
//	long acc = 0;
//	for (int i = 0; i < tableField.length; i++) acc ^= tableField[i] * 31L;
//	checkField = acc;
//
// The checksum pass exists to put a load-time data dependency on every table
// slot, so dead-code elimination cannot remove the array.
//
// The returned prefix is nop-padded to a multiple of 4 bytes so that
// prepending it preserves the alignment padding of any switch instruction in
// a pre-existing initializer body.
func emitClinitPrefix(pool *classfile.ConstPool, className, tableField, checkField string, table []int32) ([]byte, []classfile.PrefixFrame, error) {
	tableRef, err := pool.InternFieldref(className, tableField, format.IntArrayDescriptor)
	if err != nil {
		return nil, nil, err
	}
	checkRef, err := pool.InternFieldref(className, checkField, format.LongDescriptor)
	if err != nil {
		return nil, nil, err
	}
	multIdx, err := pool.InternLong(checksumMultiplier)
	if err != nil {
		return nil, nil, err
	}
	arrClassIdx, err := pool.InternClass(format.IntArrayDescriptor)
	if err != nil {
		return nil, nil, err
	}

	e := &emitter{pool: pool}

	// Build and store the table.
	if err := e.pushInt(int32(len(table))); err != nil {
		return nil, nil, err
	}
	e.op(format.OpNewarray, format.ArrayTypeInt)
	for i, v := range table {
		e.op(format.OpDup)
		if err := e.pushInt(int32(i)); err != nil {
			return nil, nil, err
		}
		if err := e.pushInt(v); err != nil {
			return nil, nil, err
		}
		e.op(format.OpIastore)
	}
	e.op(format.OpPutstatic, byte(tableRef>>8), byte(tableRef))

	// acc = 0; arr = tableField; i = 0
	e.op(format.OpLconst0, format.OpLstore0)
	e.op(format.OpGetstatic, byte(tableRef>>8), byte(tableRef))
	e.op(format.OpAstore2)
	e.op(byte(format.OpIconst0), format.OpIstore3)

	loopStart := len(e.code)
	e.op(format.OpIload3, format.OpAload2, format.OpArraylength)
	ifOff := len(e.code)
	e.op(format.OpIfIcmpge, 0, 0) // patched below

	// acc ^= arr[i] * 31L
	e.op(format.OpLload0, format.OpAload2, format.OpIload3, format.OpIaload, format.OpI2l)
	e.op(format.OpLdc2W, byte(multIdx>>8), byte(multIdx))
	e.op(format.OpLmul, format.OpLxor, format.OpLstore0)

	e.op(format.OpIinc, 3, 1)
	gotoOff := len(e.code)
	back := loopStart - gotoOff
	e.op(format.OpGoto, byte(uint16(int16(back))>>8), byte(uint16(int16(back))))

	loopEnd := len(e.code)
	fwd := loopEnd - ifOff
	e.code[ifOff+1] = byte(uint16(fwd) >> 8)
	e.code[ifOff+2] = byte(uint16(fwd))

	e.op(format.OpLload0)
	e.op(format.OpPutstatic, byte(checkRef>>8), byte(checkRef))

	for len(e.code)%4 != 0 {
		e.op(format.OpNop)
	}

	frames := []classfile.PrefixFrame{
		{Offset: loopStart, Append: [][]byte{
			{format.VerLong},
			buf.PutU16BE([]byte{format.VerObject}, arrClassIdx),
			{format.VerInteger},
		}},
		{Offset: loopEnd},
	}
	return e.code, frames, nil
}

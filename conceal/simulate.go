package conceal

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// simVal is one abstract operand stack slot: either a known integer or the
// reference to the in-progress array.
type simVal struct {
	isArray bool
	v       int32
}

// simulateClinit runs a minimal stack machine over the class initializer,
// covering exactly the opcodes the emitter produces before its table store:
// array creation, dup, the constant-push family, integer array stores, and
// putstatic. It returns the recovered array on the putstatic targeting
// fieldName, or nil when the bytecode strays outside that instruction set
// first. A foreign opcode aborts only this candidate; initialization the
// compiler appended after our prefix is never reached.
func simulateClinit(pool *classfile.ConstPool, bytecode []byte, className, fieldName string) []int32 {
	var (
		stack []simVal
		array []int32
	)
	push := func(v simVal) { stack = append(stack, v) }
	pop := func() (simVal, bool) {
		if len(stack) == 0 {
			return simVal{}, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	pc := 0
	for pc < len(bytecode) {
		op := bytecode[pc]
		switch {
		case op == format.OpNop:
			pc++
		case op >= format.OpIconstM1 && op <= format.OpIconst5:
			push(simVal{v: int32(op) - format.OpIconst0})
			pc++
		case op == format.OpBipush:
			if pc+2 > len(bytecode) {
				return nil
			}
			push(simVal{v: int32(int8(bytecode[pc+1]))})
			pc += 2
		case op == format.OpSipush:
			if pc+3 > len(bytecode) {
				return nil
			}
			push(simVal{v: int32(buf.I16BE(bytecode[pc+1:]))})
			pc += 3
		case op == format.OpLdc:
			if pc+2 > len(bytecode) {
				return nil
			}
			v, err := pool.Integer(uint16(bytecode[pc+1]))
			if err != nil {
				return nil
			}
			push(simVal{v: v})
			pc += 2
		case op == format.OpLdcW:
			if pc+3 > len(bytecode) {
				return nil
			}
			v, err := pool.Integer(buf.U16BE(bytecode[pc+1:]))
			if err != nil {
				return nil
			}
			push(simVal{v: v})
			pc += 3
		case op == format.OpNewarray:
			if pc+2 > len(bytecode) || bytecode[pc+1] != format.ArrayTypeInt {
				return nil
			}
			size, ok := pop()
			if !ok || size.isArray || size.v < 0 || size.v > 1<<16 {
				return nil
			}
			array = make([]int32, size.v)
			push(simVal{isArray: true})
			pc += 2
		case op == format.OpDup:
			top, ok := pop()
			if !ok {
				return nil
			}
			push(top)
			push(top)
			pc++
		case op == format.OpIastore:
			val, ok1 := pop()
			idx, ok2 := pop()
			ref, ok3 := pop()
			if !ok1 || !ok2 || !ok3 || !ref.isArray || array == nil {
				return nil
			}
			if val.isArray || idx.isArray || idx.v < 0 || int(idx.v) >= len(array) {
				return nil
			}
			array[idx.v] = val.v
			pc++
		case op == format.OpPutstatic:
			if pc+3 > len(bytecode) {
				return nil
			}
			class, name, desc, err := pool.Fieldref(buf.U16BE(bytecode[pc+1:]))
			if err != nil {
				return nil
			}
			ref, ok := pop()
			if !ok {
				return nil
			}
			if class == className && name == fieldName && desc == format.IntArrayDescriptor {
				if ref.isArray && array != nil {
					return array
				}
				return nil
			}
			pc += 3
		default:
			return nil
		}
	}
	return nil
}

// Package testutil builds small, valid class files for tests. The builder
// writes bytes by hand rather than going through the codec, so round-trip
// tests do not end up validating the codec against itself.
package testutil

import (
	"encoding/binary"
)

// CarrierSpec describes the synthetic carrier class to build.
type CarrierSpec struct {
	// Name is the class's internal name, e.g. "TestClass" or "com/foo/Bar".
	Name string
	// Major is the class file major version; 0 means 52 (Java 8).
	Major uint16
	// WithClinit adds a static int field "seed" and a <clinit> assigning it.
	WithClinit bool
	// WithGreet adds a public static no-arg method "greet" with an empty body.
	WithGreet bool
	// GhostAttr, when non-nil, pre-embeds a class-level GhostPayload
	// attribute with exactly these info bytes.
	GhostAttr []byte
}

// Carrier returns the bytes of a minimal class: a public class extending
// java/lang/Object with a default constructor, plus whatever the spec asks
// for.
func Carrier(spec CarrierSpec) []byte {
	if spec.Major == 0 {
		spec.Major = 52
	}

	b := &builder{}
	objectUtf := b.utf8("java/lang/Object")
	objectCls := b.class(objectUtf)
	thisUtf := b.utf8(spec.Name)
	thisCls := b.class(thisUtf)
	initName := b.utf8("<init>")
	voidDesc := b.utf8("()V")
	codeName := b.utf8("Code")
	initNAT := b.nameAndType(initName, voidDesc)
	initRef := b.methodref(objectCls, initNAT)

	var greetName uint16
	if spec.WithGreet {
		greetName = b.utf8("greet")
	}

	var clinitName, seedName, intDesc, seedRef uint16
	if spec.WithClinit {
		clinitName = b.utf8("<clinit>")
		seedName = b.utf8("seed")
		intDesc = b.utf8("I")
		seedNAT := b.nameAndType(seedName, intDesc)
		seedRef = b.fieldref(thisCls, seedNAT)
	}

	var ghostName uint16
	if spec.GhostAttr != nil {
		ghostName = b.utf8("GhostPayload")
	}

	out := make([]byte, 0, 256)
	out = be32(out, 0xCAFEBABE)
	out = be16(out, 0) // minor
	out = be16(out, spec.Major)
	out = b.emitPool(out)

	out = be16(out, 0x0021) // ACC_PUBLIC | ACC_SUPER
	out = be16(out, thisCls)
	out = be16(out, objectCls)
	out = be16(out, 0) // interfaces

	// fields
	if spec.WithClinit {
		out = be16(out, 1)
		out = be16(out, 0x0008) // ACC_STATIC
		out = be16(out, seedName)
		out = be16(out, intDesc)
		out = be16(out, 0)
	} else {
		out = be16(out, 0)
	}

	// methods
	count := uint16(1)
	if spec.WithGreet {
		count++
	}
	if spec.WithClinit {
		count++
	}
	out = be16(out, count)

	// <init>: aload_0; invokespecial Object.<init>; return
	ctor := []byte{0x2A, 0xB7, byte(initRef >> 8), byte(initRef), 0xB1}
	out = method(out, 0x0001, initName, voidDesc, codeName, 1, 1, ctor)

	if spec.WithGreet {
		out = method(out, 0x0009, greetName, voidDesc, codeName, 1, 1, []byte{0xB1})
	}

	if spec.WithClinit {
		// iconst_5; putstatic seed; return
		body := []byte{0x08, 0xB3, byte(seedRef >> 8), byte(seedRef), 0xB1}
		out = method(out, 0x0008, clinitName, voidDesc, codeName, 1, 0, body)
	}

	// class attributes
	if spec.GhostAttr != nil {
		out = be16(out, 1)
		out = be16(out, ghostName)
		out = be32(out, uint32(len(spec.GhostAttr)))
		out = append(out, spec.GhostAttr...)
	} else {
		out = be16(out, 0)
	}
	return out
}

// builder accumulates constant pool entries as raw bytes.
type builder struct {
	entries [][]byte
}

func (b *builder) addEntry(e []byte) uint16 {
	b.entries = append(b.entries, e)
	return uint16(len(b.entries))
}

func (b *builder) utf8(s string) uint16 {
	e := []byte{1}
	e = be16(e, uint16(len(s)))
	return b.addEntry(append(e, s...))
}

func (b *builder) class(nameIdx uint16) uint16 {
	return b.addEntry(be16([]byte{7}, nameIdx))
}

func (b *builder) nameAndType(nameIdx, descIdx uint16) uint16 {
	return b.addEntry(be16(be16([]byte{12}, nameIdx), descIdx))
}

func (b *builder) methodref(classIdx, natIdx uint16) uint16 {
	return b.addEntry(be16(be16([]byte{10}, classIdx), natIdx))
}

func (b *builder) fieldref(classIdx, natIdx uint16) uint16 {
	return b.addEntry(be16(be16([]byte{9}, classIdx), natIdx))
}

func (b *builder) emitPool(out []byte) []byte {
	out = be16(out, uint16(len(b.entries)+1))
	for _, e := range b.entries {
		out = append(out, e...)
	}
	return out
}

func method(out []byte, access, nameIdx, descIdx, codeName uint16, maxStack, maxLocals uint16, body []byte) []byte {
	out = be16(out, access)
	out = be16(out, nameIdx)
	out = be16(out, descIdx)
	out = be16(out, 1) // one attribute: Code
	out = be16(out, codeName)
	out = be32(out, uint32(12+len(body)))
	out = be16(out, maxStack)
	out = be16(out, maxLocals)
	out = be32(out, uint32(len(body)))
	out = append(out, body...)
	out = be16(out, 0) // exception table
	out = be16(out, 0) // code attributes
	return out
}

func be16(b []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(b, v) }
func be32(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

package conceal

import (
	"math"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/buf"
)

const (
	// AttributeName is the class-level attribute carrying the payload container.
	AttributeName = "GhostPayload"

	// Magic identifies the container: "GPH" followed by format version 1.
	Magic = 0x47504801

	// containerHeaderSize is magic plus the 4-byte length field.
	containerHeaderSize = 8
)

// ConcealAttribute embeds payload in classBytes as a GhostPayload class-level
// attribute. An existing GhostPayload attribute is replaced, never
// duplicated, so reveal-then-reconceal keeps a single container. The
// operation is deterministic in its inputs.
func ConcealAttribute(classBytes, payload []byte) ([]byte, error) {
	if len(payload) > math.MaxInt32-containerHeaderSize {
		return nil, ErrPayloadTooLarge
	}
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, err
	}
	cf.RemoveClassAttributes(AttributeName)

	container := make([]byte, 0, containerHeaderSize+len(payload))
	container = buf.PutU32BE(container, Magic)
	container = buf.PutU32BE(container, uint32(len(payload)))
	container = append(container, payload...)

	if err := cf.AppendAttribute(AttributeName, container); err != nil {
		return nil, err
	}
	return classfile.Serialize(cf), nil
}

// RevealAttribute recovers the payload from a GhostPayload attribute.
func RevealAttribute(classBytes []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, err
	}
	attr := cf.FindClassAttribute(AttributeName)
	if attr == nil {
		return nil, ErrNoPayload
	}
	if len(attr.Info) < containerHeaderSize {
		return nil, ErrCorrupted
	}
	magic := buf.U32BE(attr.Info)
	if magic != Magic {
		return nil, &BadMagicError{Expected: Magic, Found: magic}
	}
	length := buf.I32BE(attr.Info[4:])
	if length < 0 || int(length) > len(attr.Info)-containerHeaderSize {
		return nil, &BadLengthError{Length: length, Available: len(attr.Info) - containerHeaderSize}
	}
	payload := make([]byte, length)
	copy(payload, attr.Info[containerHeaderSize:])
	return payload, nil
}

package format

import "errors"

var (
	// ErrMagicMismatch indicates the input did not start with 0xCAFEBABE.
	ErrMagicMismatch = errors.New("format: magic mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrVersion indicates the class file major version is outside the supported range.
	ErrVersion = errors.New("format: unsupported class file version")
	// ErrBadTag indicates an unknown constant pool tag.
	ErrBadTag = errors.New("format: unknown constant pool tag")
	// ErrBadIndex indicates a constant pool index out of range or of the wrong kind.
	ErrBadIndex = errors.New("format: bad constant pool index")
	// ErrBadUtf8 indicates a malformed modified-UTF-8 sequence.
	ErrBadUtf8 = errors.New("format: malformed modified UTF-8")
)

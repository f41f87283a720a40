// Package buf contains helpers for endian-safe decoding routines.
package buf

import "encoding/binary"

// U16BE reads a big-endian uint16 from b. Returns 0 when b is too short.
func U16BE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// U32BE reads a big-endian uint32 from b. Returns 0 when b is too short.
func U32BE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// U64BE reads a big-endian uint64 from b. Returns 0 when b is too short.
func U64BE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// I32BE reads a big-endian int32 from b. Returns 0 when b is too short.
func I32BE(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

// I16BE reads a big-endian int16 from b. Returns 0 when b is too short.
func I16BE(b []byte) int16 {
	if len(b) < 2 {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

// PutU16BE appends v to dst in big-endian order.
func PutU16BE(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// PutU32BE appends v to dst in big-endian order.
func PutU32BE(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// PutU64BE appends v to dst in big-endian order.
func PutU64BE(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

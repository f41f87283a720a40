package format

import "unicode/utf16"

// StringHash computes the JVM's canonical 32-bit string hash: a polynomial
// with multiplier 31 and seed 0 over the UTF-16 code units of s. Concealed
// field names are derived from this hash, so the algorithm is a
// cross-implementation contract and must not drift.
func StringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

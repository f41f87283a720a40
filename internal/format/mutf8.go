package format

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// The constant pool stores strings in "modified UTF-8": U+0000 is encoded as
// the two-byte sequence 0xC0 0x80, supplementary characters are encoded as a
// surrogate pair of two three-byte sequences (CESU-8), and four-byte
// sequences never appear.

// MUTF8Decoder is a transform.Transformer converting modified UTF-8 to
// standard UTF-8.
type MUTF8Decoder struct{ transform.NopResetter }

// Transform implements transform.Transformer.
func (MUTF8Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		var r rune
		var size int
		switch {
		case c < 0x80:
			if c == 0 {
				return nDst, nSrc, ErrBadUtf8
			}
			r, size = rune(c), 1
		case c&0xE0 == 0xC0:
			if nSrc+2 > len(src) {
				if !atEOF {
					return nDst, nSrc, transform.ErrShortSrc
				}
				return nDst, nSrc, ErrBadUtf8
			}
			if src[nSrc+1]&0xC0 != 0x80 {
				return nDst, nSrc, ErrBadUtf8
			}
			r = rune(c&0x1F)<<6 | rune(src[nSrc+1]&0x3F)
			size = 2
		case c&0xF0 == 0xE0:
			if nSrc+3 > len(src) {
				if !atEOF {
					return nDst, nSrc, transform.ErrShortSrc
				}
				return nDst, nSrc, ErrBadUtf8
			}
			if src[nSrc+1]&0xC0 != 0x80 || src[nSrc+2]&0xC0 != 0x80 {
				return nDst, nSrc, ErrBadUtf8
			}
			r = rune(c&0x0F)<<12 | rune(src[nSrc+1]&0x3F)<<6 | rune(src[nSrc+2]&0x3F)
			size = 3
			if utf16.IsSurrogate(r) {
				// High surrogate must pair with a following low surrogate,
				// each encoded as its own three-byte sequence.
				if nSrc+6 > len(src) {
					if !atEOF {
						return nDst, nSrc, transform.ErrShortSrc
					}
					return nDst, nSrc, ErrBadUtf8
				}
				c2 := src[nSrc+3]
				if c2&0xF0 != 0xE0 || src[nSrc+4]&0xC0 != 0x80 || src[nSrc+5]&0xC0 != 0x80 {
					return nDst, nSrc, ErrBadUtf8
				}
				r2 := rune(c2&0x0F)<<12 | rune(src[nSrc+4]&0x3F)<<6 | rune(src[nSrc+5]&0x3F)
				combined := utf16.DecodeRune(r, r2)
				if combined == utf8.RuneError {
					return nDst, nSrc, ErrBadUtf8
				}
				r = combined
				size = 6
			}
		default:
			return nDst, nSrc, ErrBadUtf8
		}
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
	}
	return nDst, nSrc, nil
}

// MUTF8Encoder is a transform.Transformer converting standard UTF-8 to
// modified UTF-8.
type MUTF8Encoder struct{ transform.NopResetter }

// Transform implements transform.Transformer.
func (MUTF8Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			return nDst, nSrc, ErrBadUtf8
		}
		var enc []byte
		switch {
		case r == 0:
			enc = []byte{0xC0, 0x80}
		case r < 0x80:
			enc = []byte{byte(r)}
		case r < 0x800:
			enc = []byte{0xC0 | byte(r>>6), 0x80 | byte(r&0x3F)}
		case r <= 0xFFFF:
			enc = []byte{0xE0 | byte(r>>12), 0x80 | byte(r>>6&0x3F), 0x80 | byte(r&0x3F)}
		default:
			hi, lo := utf16.EncodeRune(r)
			enc = []byte{
				0xE0 | byte(hi>>12), 0x80 | byte(hi>>6&0x3F), 0x80 | byte(hi&0x3F),
				0xE0 | byte(lo>>12), 0x80 | byte(lo>>6&0x3F), 0x80 | byte(lo&0x3F),
			}
		}
		if nDst+len(enc) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], enc)
		nSrc += size
	}
	return nDst, nSrc, nil
}

// DecodeMUTF8 converts modified-UTF-8 bytes to a Go string.
func DecodeMUTF8(b []byte) (string, error) {
	s, _, err := transform.String(MUTF8Decoder{}, string(b))
	if err != nil {
		return "", err
	}
	return s, nil
}

// EncodeMUTF8 converts a Go string to modified-UTF-8 bytes.
func EncodeMUTF8(s string) ([]byte, error) {
	out, _, err := transform.Bytes(MUTF8Encoder{}, []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

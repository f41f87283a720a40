package buf

import "testing"

func TestReadBigEndian(t *testing.T) {
	b := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0}
	if got := U16BE(b); got != 0x1234 {
		t.Fatalf("U16BE: got 0x%04X", got)
	}
	if got := U32BE(b); got != 0x12345678 {
		t.Fatalf("U32BE: got 0x%08X", got)
	}
	if got := U64BE(b); got != 0x123456789ABCDEF0 {
		t.Fatalf("U64BE: got 0x%016X", got)
	}
	if got := I32BE([]byte{0xFF, 0xFF, 0xFF, 0xFE}); got != -2 {
		t.Fatalf("I32BE: got %d", got)
	}
	if got := I16BE([]byte{0xFF, 0x80}); got != -128 {
		t.Fatalf("I16BE: got %d", got)
	}
}

func TestReadShortBuffer(t *testing.T) {
	if got := U16BE([]byte{0x01}); got != 0 {
		t.Fatalf("U16BE short: got %d", got)
	}
	if got := U32BE([]byte{0x01, 0x02}); got != 0 {
		t.Fatalf("U32BE short: got %d", got)
	}
	if got := U64BE(nil); got != 0 {
		t.Fatalf("U64BE nil: got %d", got)
	}
}

func TestPutRoundTrip(t *testing.T) {
	out := PutU16BE(nil, 0xBEEF)
	out = PutU32BE(out, 0xCAFEBABE)
	out = PutU64BE(out, 0x0102030405060708)
	if U16BE(out) != 0xBEEF {
		t.Fatalf("PutU16BE mismatch")
	}
	if U32BE(out[2:]) != 0xCAFEBABE {
		t.Fatalf("PutU32BE mismatch")
	}
	if U64BE(out[6:]) != 0x0102030405060708 {
		t.Fatalf("PutU64BE mismatch")
	}
}

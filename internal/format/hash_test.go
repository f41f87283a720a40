package format

import "testing"

// Reference values computed with the host VM's String.hashCode. The field
// naming scheme depends on this hash bit-for-bit, so drift here breaks
// cross-implementation extraction.
func TestStringHashReference(t *testing.T) {
	cases := []struct {
		s    string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"TestClass", 797745126},
		{"Alpha", 63357246},
		{"Beta", 2066960},
		{"Carrier", -2075953448},
		{"java/lang/String", -2083121403},
		{"com/example/Demo", 520023382},
	}
	for _, c := range cases {
		if got := StringHash(c.s); got != c.want {
			t.Errorf("StringHash(%q) = %d, want %d", c.s, got, c.want)
		}
	}
}

// The hash runs over UTF-16 code units, so a supplementary character counts
// as two units. U+10400: high surrogate 0xD801, low surrogate 0xDC00.
func TestStringHashSupplementary(t *testing.T) {
	want := 31*int32(0xD801) + int32(0xDC00)
	if got := StringHash("\U00010400"); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

package conv

import (
	"bytes"
	"testing"
)

func TestBytesHex(t *testing.T) {
	if got := BytesHex([]byte{0xA1, 0x0C, 0x08}); got != "A1 0C 08" {
		t.Fatalf("BytesHex = %q", got)
	}
	if got := BytesHex(nil); got != "" {
		t.Fatalf("BytesHex(nil) = %q", got)
	}
}

func TestParseHexBytes(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
		ok   bool
	}{
		{"a1 0a 04", []byte{0xA1, 0x0A, 0x04}, true},
		{"A30x28,28:28 28", []byte{0xA3, 0x28, 0x28, 0x28, 0x28}, true},
		{"0xA6", []byte{0xA6}, true},
		{"ff", []byte{0xFF}, true},
		{"a", nil, false},
		{"a 1", nil, false},
		{"zz", nil, false},
	}
	for _, c := range cases {
		got, ok := ParseHexBytes(c.in)
		if ok != c.ok || !bytes.Equal(got, c.want) {
			t.Errorf("ParseHexBytes(%q) = %X,%v want %X,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

package protocol

import (
	"bytes"
	"testing"
	"time"

	"lenscode-go/errcode"
)

func TestDecodeLegacySingleByte(t *testing.T) {
	for b := 0; b <= 255; b++ {
		c, ok := Decode([]byte{byte(b)}).(SetOpacity)
		if !ok {
			t.Fatalf("byte %d: not decoded as SetOpacity", b)
		}
		want := uint8((b*100 + 127) / 255)
		if c.Duty != want || c.Duty > 100 {
			t.Fatalf("byte %d: duty %d, want %d", b, c.Duty, want)
		}
	}
	// Opcode values on their own are still the legacy form.
	if _, ok := Decode([]byte{OpResume}).(SetOpacity); !ok {
		t.Fatal("single 0xA6 must decode as opacity")
	}
}

func TestDecodeExtended(t *testing.T) {
	cases := []struct {
		in   []byte
		want Command
	}{
		{[]byte{0xA1, 12, 8}, SetStrobe{StartHz: 12, EndHz: 8}},
		{[]byte{0xA1, 0, 99}, SetStrobe{StartHz: 0, EndHz: 99}},
		{[]byte{0xA2, 55}, SetBrightness{Pct: 55}},
		{[]byte{0xA3, 40, 0, 40, 0}, SetBreathing{Inhale: 40, HoldIn: 0, Exhale: 40, HoldOut: 0}},
		{[]byte{0xA4, 1}, SetDuration{Minutes: 1}},
		{[]byte{0xA5, 30}, SetOverride{Duty: 30}},
		{[]byte{0xA6, 0}, Resume{}},
		{[]byte{0xA7, 0}, Sleep{}},
		{[]byte{0xA2, 10, 0xFF}, SetBrightness{Pct: 10}}, // trailing bytes ignored
	}
	for _, tc := range cases {
		if got := Decode(tc.in); got != tc.want {
			t.Errorf("Decode(% X) = %#v, want %#v", tc.in, got, tc.want)
		}
		if Outcome(Decode(tc.in)) != errcode.OK {
			t.Errorf("Decode(% X) outcome not OK", tc.in)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		in   []byte
		want errcode.Code
	}{
		{nil, errcode.EmptyCommand},
		{[]byte{0xA1, 12}, errcode.MalformedCommand},
		{[]byte{0xA3, 1, 2, 3}, errcode.MalformedCommand},
		{[]byte{0x10, 0x20}, errcode.UnknownOpcode},
		{[]byte{0xA8, 0x00}, errcode.UnknownOpcode},
	}
	for _, tc := range cases {
		got, ok := Decode(tc.in).(Unrecognized)
		if !ok {
			t.Fatalf("Decode(% X) = %#v, want Unrecognized", tc.in, Decode(tc.in))
		}
		if got.Reason != tc.want || Outcome(got) != tc.want {
			t.Errorf("Decode(% X) reason %q, want %q", tc.in, got.Reason, tc.want)
		}
	}
}

func TestEncodersClampAndRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"opacity high", EncodeOpacity(300), []byte{255}},
		{"opacity low", EncodeOpacity(-4), []byte{0}},
		{"strobe", EncodeStrobe(0, 80), []byte{0xA1, 1, 50}},
		{"brightness", EncodeBrightness(140), []byte{0xA2, 100}},
		{"breathing", EncodeBreathing(4*time.Second, 30*time.Second, 2500*time.Millisecond, 0), []byte{0xA3, 40, 255, 25, 0}},
		{"duration", EncodeDuration(0), []byte{0xA4, 1}},
		{"duration cap", EncodeDuration(90), []byte{0xA4, 60}},
		{"override", EncodeOverride(101), []byte{0xA5, 100}},
		{"resume", EncodeResume(), []byte{0xA6, 0}},
		{"sleep", EncodeSleep(), []byte{0xA7, 0}},
	}
	for _, tc := range cases {
		if !bytes.Equal(tc.got, tc.want) {
			t.Errorf("%s: % X, want % X", tc.name, tc.got, tc.want)
		}
		if _, bad := Decode(tc.got).(Unrecognized); bad {
			t.Errorf("%s: encoded form does not decode", tc.name)
		}
	}
	if _, ok := Decode(EncodeResume()).(Resume); !ok {
		t.Fatal("EncodeResume must decode as Resume")
	}
	if _, ok := Decode(EncodeSleep()).(Sleep); !ok {
		t.Fatal("EncodeSleep must decode as Sleep")
	}
}

func TestPresetCommandsOrder(t *testing.T) {
	p, err := LookupPreset("Relax")
	if err != nil {
		t.Fatal(err)
	}
	cmds := p.WithDuration(20).Commands()
	if len(cmds) != 4 {
		t.Fatalf("got %d commands", len(cmds))
	}
	wantOps := []byte{OpBrightness, OpBreathing, OpStrobe, OpDuration}
	for i, op := range wantOps {
		if cmds[i][0] != op {
			t.Fatalf("command %d opcode %#x, want %#x", i, cmds[i][0], op)
		}
	}
	if !bytes.Equal(cmds[2], []byte{0xA1, 10, 4}) || !bytes.Equal(cmds[3], []byte{0xA4, 20}) {
		t.Fatalf("unexpected strobe/duration: % X / % X", cmds[2], cmds[3])
	}
	if _, err := LookupPreset("party"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if got := PresetNames(); len(got) != 4 || got[0] != "focus" {
		t.Fatalf("PresetNames() = %v", got)
	}
}

func TestCommandString(t *testing.T) {
	if got := Decode([]byte{0xA1, 12, 8}).String(); got != "strobe 12->8 Hz" {
		t.Fatalf("String() = %q", got)
	}
	if got := Decode([]byte{0x10, 0}).String(); got != "unrecognized 10 (unknown_opcode)" {
		t.Fatalf("String() = %q", got)
	}
}

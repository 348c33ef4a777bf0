// Package protocol is the lens command wire format: a single opaque buffer
// per write. A one-byte buffer is the legacy opacity form; longer buffers
// start with an extended opcode.
package protocol

import (
	"lenscode-go/errcode"
	"lenscode-go/x/conv"
	"lenscode-go/x/mathx"
)

// Extended opcodes. They only apply to buffers of two bytes or more: Resume
// and Sleep carry no arguments, so clients pad them with one ignored byte.
const (
	OpStrobe     byte = 0xA1
	OpBrightness byte = 0xA2
	OpBreathing  byte = 0xA3
	OpDuration   byte = 0xA4
	OpOverride   byte = 0xA5
	OpResume     byte = 0xA6
	OpSleep      byte = 0xA7
)

// arity is the total buffer length each opcode needs, opcode included.
var arity = map[byte]int{
	OpStrobe:     3,
	OpBrightness: 2,
	OpBreathing:  5,
	OpDuration:   2,
	OpOverride:   2,
	OpResume:     1,
	OpSleep:      1,
}

// Command is the decoded form of one write. Exactly one concrete type below.
type Command interface {
	command()
	String() string
}

// SetOpacity is the legacy single-byte form. Duty is already mapped to 0..100.
type SetOpacity struct {
	Level uint8
	Duty  uint8
}

type SetStrobe struct{ StartHz, EndHz uint8 }

type SetBrightness struct{ Pct uint8 }

// SetBreathing timings are in tenths of a second.
type SetBreathing struct{ Inhale, HoldIn, Exhale, HoldOut uint8 }

type SetDuration struct{ Minutes uint8 }

type SetOverride struct{ Duty uint8 }

type Resume struct{}

type Sleep struct{}

// Unrecognized is dropped by the engine without touching state.
type Unrecognized struct {
	Opcode byte
	Len    int
	Reason errcode.Code
}

func (SetOpacity) command()    {}
func (SetStrobe) command()     {}
func (SetBrightness) command() {}
func (SetBreathing) command()  {}
func (SetDuration) command()   {}
func (SetOverride) command()   {}
func (Resume) command()        {}
func (Sleep) command()         {}
func (Unrecognized) command()  {}

func (c SetOpacity) String() string    { return "opacity " + u8(c.Level) + " -> " + u8(c.Duty) + "%" }
func (c SetStrobe) String() string     { return "strobe " + u8(c.StartHz) + "->" + u8(c.EndHz) + " Hz" }
func (c SetBrightness) String() string { return "brightness " + u8(c.Pct) + "%" }
func (c SetBreathing) String() string {
	return "breathing " + u8(c.Inhale) + "/" + u8(c.HoldIn) + "/" + u8(c.Exhale) + "/" + u8(c.HoldOut) + " ds"
}
func (c SetDuration) String() string { return "duration " + u8(c.Minutes) + " min" }
func (c SetOverride) String() string { return "override " + u8(c.Duty) + "%" }
func (Resume) String() string        { return "resume" }
func (Sleep) String() string         { return "sleep" }
func (c Unrecognized) String() string {
	return "unrecognized " + conv.BytesHex([]byte{c.Opcode}) + " (" + string(c.Reason) + ")"
}

// OpacityDuty maps the legacy 0..255 level to a 0..100 duty, rounding.
func OpacityDuty(level uint8) uint8 {
	d := mathx.RoundDiv(uint32(level)*100, 255)
	return uint8(mathx.Min(d, 100))
}

// Decode turns a raw write into a Command. It never fails: anything it
// cannot interpret comes back as Unrecognized. Field values are carried as
// received; range clamping happens when the command is committed.
func Decode(b []byte) Command {
	switch len(b) {
	case 0:
		return Unrecognized{Reason: errcode.EmptyCommand}
	case 1:
		// The whole single-byte space is the legacy opacity form, so
		// argument-less opcodes must arrive as an extended write. A bare
		// 0xA6 or 0xA7 is an opacity of 65 %.
		return SetOpacity{Level: b[0], Duty: OpacityDuty(b[0])}
	}

	op := b[0]
	need, known := arity[op]
	if !known {
		return Unrecognized{Opcode: op, Len: len(b), Reason: errcode.UnknownOpcode}
	}
	if len(b) < need {
		return Unrecognized{Opcode: op, Len: len(b), Reason: errcode.MalformedCommand}
	}

	switch op {
	case OpStrobe:
		return SetStrobe{StartHz: b[1], EndHz: b[2]}
	case OpBrightness:
		return SetBrightness{Pct: b[1]}
	case OpBreathing:
		return SetBreathing{Inhale: b[1], HoldIn: b[2], Exhale: b[3], HoldOut: b[4]}
	case OpDuration:
		return SetDuration{Minutes: b[1]}
	case OpOverride:
		return SetOverride{Duty: b[1]}
	case OpResume:
		return Resume{}
	default: // OpSleep
		return Sleep{}
	}
}

// Outcome is the best-effort result code for a decoded command.
func Outcome(c Command) errcode.Code {
	if u, ok := c.(Unrecognized); ok {
		return u.Reason
	}
	return errcode.OK
}

func u8(v uint8) string {
	var buf [3]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return string(buf[i:])
}

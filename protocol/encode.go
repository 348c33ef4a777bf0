package protocol

import (
	"time"

	"lenscode-go/types"
	"lenscode-go/x/mathx"
)

// Encoders clamp on the client side so a well-behaved sender never relies on
// device clamping. Each returns a fresh buffer.

// pad is appended to argument-less opcodes so they are not taken for a
// legacy opacity byte.
const pad byte = 0x00

func EncodeOpacity(level int) []byte {
	return []byte{byte(mathx.Clamp(level, 0, 255))}
}

func EncodeStrobe(startHz, endHz int) []byte {
	return []byte{OpStrobe, hz(startHz), hz(endHz)}
}

func EncodeBrightness(pct int) []byte {
	return []byte{OpBrightness, byte(mathx.Clamp(pct, 0, types.MaxPct))}
}

// EncodeBreathing converts durations to tenths of a second, truncating and
// capping at 25.5 s per phase.
func EncodeBreathing(inhale, holdInEnd, exhale, holdOutEnd time.Duration) []byte {
	return []byte{OpBreathing, tenths(inhale), tenths(holdInEnd), tenths(exhale), tenths(holdOutEnd)}
}

func EncodeDuration(minutes int) []byte {
	return []byte{OpDuration, byte(mathx.Clamp(minutes, types.MinDuration, types.MaxDuration))}
}

func EncodeOverride(duty int) []byte {
	return []byte{OpOverride, byte(mathx.Clamp(duty, 0, types.MaxPct))}
}

func EncodeResume() []byte { return []byte{OpResume, pad} }
func EncodeSleep() []byte  { return []byte{OpSleep, pad} }

func hz(v int) byte { return byte(mathx.Clamp(v, types.MinHz, types.MaxHz)) }

func tenths(d time.Duration) byte {
	return byte(mathx.Clamp(int64(d/types.Tenth), 0, types.MaxTenths))
}

package types

import "time"

// ------------------------
// Session parameters
// ------------------------

// Documented ranges. Every committed SessionConfig lies inside them.
const (
	MinHz       = 1
	MaxHz       = 50
	MaxPct      = 100
	MaxTenths   = 255
	MinDuration = 1
	MaxDuration = 60
)

// Tenth is the wire unit for breathing timings.
const Tenth = 100 * time.Millisecond

// SessionConfig holds the tunable parameters of a session.
// Breathing timings are stored in tenths of a second, as sent on the wire.
type SessionConfig struct {
	BrightnessPct    uint8 `json:"brightness_pct" yaml:"brightness_pct"`
	StartHz          uint8 `json:"start_hz" yaml:"start_hz"`
	EndHz            uint8 `json:"end_hz" yaml:"end_hz"`
	InhaleTenths     uint8 `json:"inhale_ds" yaml:"inhale_ds"`
	HoldInEndTenths  uint8 `json:"hold_in_end_ds" yaml:"hold_in_end_ds"`
	ExhaleTenths     uint8 `json:"exhale_ds" yaml:"exhale_ds"`
	HoldOutEndTenths uint8 `json:"hold_out_end_ds" yaml:"hold_out_end_ds"`
	DurationMin      uint8 `json:"duration_min" yaml:"duration_min"`
}

// DefaultSessionConfig is the boot configuration: 12->8 Hz over 10 minutes,
// 4 s inhale/exhale with holds growing from 0 to 4 s.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		BrightnessPct:    100,
		StartHz:          12,
		EndHz:            8,
		InhaleTenths:     40,
		HoldInEndTenths:  40,
		ExhaleTenths:     40,
		HoldOutEndTenths: 40,
		DurationMin:      10,
	}
}

func (c SessionConfig) Inhale() time.Duration     { return time.Duration(c.InhaleTenths) * Tenth }
func (c SessionConfig) Exhale() time.Duration     { return time.Duration(c.ExhaleTenths) * Tenth }
func (c SessionConfig) HoldInEnd() time.Duration  { return time.Duration(c.HoldInEndTenths) * Tenth }
func (c SessionConfig) HoldOutEnd() time.Duration { return time.Duration(c.HoldOutEndTenths) * Tenth }
func (c SessionConfig) Total() time.Duration      { return time.Duration(c.DurationMin) * time.Minute }

// ------------------------
// Session runtime
// ------------------------

// Mode is the session state. Exactly one holds at any instant.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeRunning
	ModeOverride
	ModeEnded
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRunning:
		return "running"
	case ModeOverride:
		return "override"
	case ModeEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// SessionRuntime is the mutable run state next to SessionConfig.
type SessionRuntime struct {
	Mode         Mode          `json:"mode"`
	Start        time.Duration `json:"start_ns"` // on the engine clock
	OverrideDuty uint8         `json:"override_duty"`
	// Epoch changes on every commit that alters mode or Start, so writers
	// holding an older epoch know their view is stale.
	Epoch uint32 `json:"epoch"`
}

// ------------------------
// Breathing
// ------------------------

type BreathPhase uint8

const (
	PhaseInhale BreathPhase = iota
	PhaseHoldIn
	PhaseExhale
	PhaseHoldOut
	numPhases
)

// Next returns the phase that follows p in the cycle.
func (p BreathPhase) Next() BreathPhase { return (p + 1) % numPhases }

func (p BreathPhase) String() string {
	switch p {
	case PhaseInhale:
		return "inhale"
	case PhaseHoldIn:
		return "hold_in"
	case PhaseExhale:
		return "exhale"
	case PhaseHoldOut:
		return "hold_out"
	default:
		return "unknown"
	}
}

func (p BreathPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Package waveform computes the lens output level for a point in a session:
// linear progression of strobe frequency and hold times, the four-phase
// breathing envelope and the strobe on/off gating.
package waveform

import (
	"time"

	"lenscode-go/types"
	"lenscode-go/x/mathx"
)

// Strobe duty split: the lens is dark for 3/4 of each strobe cycle.
const (
	onNum  = 3
	offNum = 1
	den    = onNum + offNum
)

// Frame is everything the loop needs for one strobe cycle.
type Frame struct {
	Progress float64 // 0..1
	FreqHz   float64 // >= 1
	HoldIn   time.Duration
	HoldOut  time.Duration
	Phase    types.BreathPhase
	Cursor   Cursor
	Breath   float64 // envelope 0..100
	Duty     uint8   // output during the dark sub-phase, 0..100
	On       time.Duration
	Off      time.Duration
}

// Cursor is the breathing state after the latest Next call.
type Cursor struct {
	Phase      types.BreathPhase
	PhaseStart time.Duration // session time the phase began
	InPhase    time.Duration
	Durations  [4]time.Duration // indexed by BreathPhase
}

// Progress returns elapsed/total clamped to [0, 1].
func Progress(cfg types.SessionConfig, elapsed time.Duration) float64 {
	total := cfg.Total()
	if total <= 0 {
		return 1
	}
	return mathx.Unit(float64(elapsed) / float64(total))
}

// Frequency interpolates StartHz -> EndHz and floors the result at 1 Hz.
func Frequency(cfg types.SessionConfig, p float64) float64 {
	f := mathx.Lerp(float64(cfg.StartHz), float64(cfg.EndHz), mathx.Unit(p))
	return mathx.Max(f, types.MinHz)
}

// Holds grows both hold phases linearly from zero to their end values.
// Inhale and exhale are fixed for the whole session.
func Holds(cfg types.SessionConfig, p float64) (holdIn, holdOut time.Duration) {
	p = mathx.Unit(p)
	return time.Duration(float64(cfg.HoldInEnd()) * p), time.Duration(float64(cfg.HoldOutEnd()) * p)
}

// StrobeTiming splits one 1/f cycle into the dark (on) and clear (off)
// sub-phases.
func StrobeTiming(f float64) (on, off time.Duration) {
	f = mathx.Max(f, types.MinHz)
	cycle := time.Duration(float64(time.Second) / f)
	on = cycle * onNum / den
	return on, cycle - on
}

// BreathLevel maps a phase and its completed fraction to 0..100.
func BreathLevel(phase types.BreathPhase, frac float64) float64 {
	frac = mathx.Unit(frac)
	switch phase {
	case types.PhaseInhale:
		return frac * 100
	case types.PhaseHoldIn:
		return 100
	case types.PhaseExhale:
		return (1 - frac) * 100
	default:
		return 0
	}
}

// Generator keeps the breathing cursor between calls. It is owned by the
// scheduler loop and is not safe for concurrent use.
type Generator struct {
	cur Cursor
}

// Reset restarts breathing at the top of an inhale at session time at.
func (g *Generator) Reset(at time.Duration) {
	g.cur = Cursor{Phase: types.PhaseInhale, PhaseStart: at}
}

func (g *Generator) Cursor() Cursor { return g.cur }

// Next computes the frame for session time elapsed.
func (g *Generator) Next(cfg types.SessionConfig, elapsed time.Duration) Frame {
	p := Progress(cfg, elapsed)
	f := Frequency(cfg, p)
	holdIn, holdOut := Holds(cfg, p)

	c := &g.cur
	c.Durations = [4]time.Duration{cfg.Inhale(), holdIn, cfg.Exhale(), holdOut}
	if elapsed < c.PhaseStart {
		c.PhaseStart = elapsed
	}
	c.InPhase = elapsed - c.PhaseStart

	// Skip finished or empty phases; one full pass at most so four empty
	// phases cannot spin.
	for checks := 0; checks < 4; checks++ {
		d := c.Durations[c.Phase]
		if d != 0 && c.InPhase < d {
			break
		}
		c.Phase = c.Phase.Next()
		c.PhaseStart = elapsed
		c.InPhase = 0
	}

	frac := 1.0
	if d := c.Durations[c.Phase]; d > 0 {
		frac = float64(c.InPhase) / float64(d)
	}
	breath := BreathLevel(c.Phase, frac)
	duty := uint8(mathx.Clamp(breath*float64(cfg.BrightnessPct)/100, 0, 100))
	on, off := StrobeTiming(f)

	return Frame{
		Progress: p,
		FreqHz:   f,
		HoldIn:   holdIn,
		HoldOut:  holdOut,
		Phase:    c.Phase,
		Cursor:   *c,
		Breath:   breath,
		Duty:     duty,
		On:       on,
		Off:      off,
	}
}

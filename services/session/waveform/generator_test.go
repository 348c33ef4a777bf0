package waveform

import (
	"math"
	"testing"
	"time"

	"lenscode-go/types"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFrequencyInterpolates(t *testing.T) {
	cfg := types.DefaultSessionConfig() // 12 -> 8 over 10 min
	cases := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 12},
		{5 * time.Minute, 10},
		{10 * time.Minute, 8},
		{20 * time.Minute, 8}, // clamped past the end
	}
	for _, c := range cases {
		p := Progress(cfg, c.elapsed)
		if got := Frequency(cfg, p); !near(got, c.want) {
			t.Fatalf("elapsed=%v: f=%v want %v", c.elapsed, got, c.want)
		}
	}
}

func TestFrequencyFloor(t *testing.T) {
	cfg := types.SessionConfig{StartHz: 0, EndHz: 0, DurationMin: 1}
	if f := Frequency(cfg, 0.5); f != 1 {
		t.Fatalf("f=%v want 1", f)
	}
}

func TestProgressClamped(t *testing.T) {
	cfg := types.DefaultSessionConfig()
	if p := Progress(cfg, -time.Second); p != 0 {
		t.Fatalf("p=%v want 0", p)
	}
	if p := Progress(cfg, time.Hour); p != 1 {
		t.Fatalf("p=%v want 1", p)
	}
	cfg.DurationMin = 0
	if p := Progress(cfg, 0); p != 1 {
		t.Fatalf("zero duration p=%v want 1", p)
	}
}

func TestHoldsGrow(t *testing.T) {
	cfg := types.DefaultSessionConfig()
	in, out := Holds(cfg, 0)
	if in != 0 || out != 0 {
		t.Fatalf("p=0 holds %v/%v", in, out)
	}
	in, out = Holds(cfg, 0.5)
	if in != 2*time.Second || out != 2*time.Second {
		t.Fatalf("p=0.5 holds %v/%v", in, out)
	}
	in, out = Holds(cfg, 1)
	if in != 4*time.Second || out != 4*time.Second {
		t.Fatalf("p=1 holds %v/%v", in, out)
	}
}

func TestStrobeTiming(t *testing.T) {
	on, off := StrobeTiming(10)
	if on != 75*time.Millisecond || off != 25*time.Millisecond {
		t.Fatalf("10Hz on/off = %v/%v", on, off)
	}
	on, off = StrobeTiming(0)
	if on+off != time.Second {
		t.Fatalf("floored cycle = %v", on+off)
	}
}

func TestBreathEnvelopeWithoutHolds(t *testing.T) {
	cfg := types.SessionConfig{
		BrightnessPct: 100, StartHz: 10, EndHz: 10,
		InhaleTenths: 40, ExhaleTenths: 40, DurationMin: 10,
	}
	var g Generator
	g.Reset(0)

	steps := []struct {
		at    time.Duration
		phase types.BreathPhase
		duty  uint8
	}{
		{0, types.PhaseInhale, 0},
		{2 * time.Second, types.PhaseInhale, 50},
		{4 * time.Second, types.PhaseExhale, 100}, // hold-in is empty
		{6 * time.Second, types.PhaseExhale, 50},
		{8 * time.Second, types.PhaseInhale, 0}, // hold-out is empty
		{10 * time.Second, types.PhaseInhale, 50},
	}
	for _, s := range steps {
		fr := g.Next(cfg, s.at)
		if fr.Phase != s.phase || fr.Duty != s.duty {
			t.Fatalf("t=%v: phase=%v duty=%d want %v/%d", s.at, fr.Phase, fr.Duty, s.phase, s.duty)
		}
	}
}

func TestBreathHoldsAppearWithProgress(t *testing.T) {
	cfg := types.SessionConfig{
		BrightnessPct: 100, StartHz: 10, EndHz: 10,
		InhaleTenths: 10, HoldInEndTenths: 20, ExhaleTenths: 10, HoldOutEndTenths: 20,
		DurationMin: 1,
	}
	var g Generator
	g.Reset(0)

	// At p=0.5 each hold lasts 1 s.
	g.Next(cfg, 30*time.Second)
	fr := g.Next(cfg, 31*time.Second)
	if fr.Phase != types.PhaseHoldIn || fr.Duty != 100 {
		t.Fatalf("phase=%v duty=%d want hold_in/100", fr.Phase, fr.Duty)
	}
	if fr.HoldIn != time.Duration(float64(2*time.Second)*Progress(cfg, 31*time.Second)) {
		t.Fatalf("hold-in %v", fr.HoldIn)
	}
}

func TestBrightnessScalesDuty(t *testing.T) {
	cfg := types.SessionConfig{
		BrightnessPct: 55, StartHz: 10, EndHz: 10,
		InhaleTenths: 10, ExhaleTenths: 10, DurationMin: 10,
	}
	var g Generator
	g.Reset(0)
	// Inhale complete and hold-in empty: exhale starts at full level.
	fr := g.Next(cfg, time.Second)
	if fr.Breath != 100 || fr.Duty != 55 {
		t.Fatalf("breath=%v duty=%d", fr.Breath, fr.Duty)
	}
}

func TestAllPhasesEmptyTerminates(t *testing.T) {
	cfg := types.SessionConfig{BrightnessPct: 100, StartHz: 5, EndHz: 5, DurationMin: 1}
	var g Generator
	g.Reset(0)
	fr := g.Next(cfg, 10*time.Second)
	// Zero-length current phase counts as complete.
	if fr.Phase != types.PhaseInhale || fr.Duty != 100 {
		t.Fatalf("phase=%v duty=%d", fr.Phase, fr.Duty)
	}
}

func TestResetRestartsInhale(t *testing.T) {
	cfg := types.DefaultSessionConfig()
	var g Generator
	g.Reset(0)
	g.Next(cfg, 5*time.Second) // past the first inhale
	if g.Cursor().Phase == types.PhaseInhale {
		t.Fatalf("expected to have left inhale")
	}
	g.Reset(0)
	fr := g.Next(cfg, 0)
	if fr.Phase != types.PhaseInhale || fr.Duty != 0 {
		t.Fatalf("after reset phase=%v duty=%d", fr.Phase, fr.Duty)
	}
}

package session

import (
	"testing"
	"time"

	"lenscode-go/protocol"
	"lenscode-go/types"
)

func TestStoreBootState(t *testing.T) {
	s := NewStore(0, true)
	snap := s.Snapshot()
	if snap.Runtime.Mode != types.ModeRunning {
		t.Fatalf("mode=%v want running", snap.Runtime.Mode)
	}
	if snap.Config != types.DefaultSessionConfig() {
		t.Fatalf("config=%+v", snap.Config)
	}
	if m := NewStore(0, false).Snapshot().Runtime.Mode; m != types.ModeIdle {
		t.Fatalf("no autostart mode=%v", m)
	}
}

func TestStoreClampsOnCommit(t *testing.T) {
	s := NewStore(0, true)
	s.Apply(protocol.SetStrobe{StartHz: 0, EndHz: 200}, time.Second)
	s.Apply(protocol.SetBrightness{Pct: 250}, time.Second)
	s.Apply(protocol.SetDuration{Minutes: 0}, time.Second)
	cfg := s.Snapshot().Config
	if cfg.StartHz != types.MinHz || cfg.EndHz != types.MaxHz {
		t.Fatalf("hz %d->%d", cfg.StartHz, cfg.EndHz)
	}
	if cfg.BrightnessPct != 100 {
		t.Fatalf("brightness %d", cfg.BrightnessPct)
	}
	if cfg.DurationMin != types.MinDuration {
		t.Fatalf("duration %d", cfg.DurationMin)
	}
	s.Apply(protocol.SetDuration{Minutes: 99}, time.Second)
	if d := s.Snapshot().Config.DurationMin; d != types.MaxDuration {
		t.Fatalf("duration %d", d)
	}
}

func TestStoreRestartCommands(t *testing.T) {
	cmds := []protocol.Command{
		protocol.SetStrobe{StartHz: 10, EndHz: 4},
		protocol.SetBreathing{Inhale: 10, HoldIn: 10, Exhale: 10, HoldOut: 10},
		protocol.SetDuration{Minutes: 5},
		protocol.Resume{},
	}
	for _, c := range cmds {
		s := NewStore(0, true)
		s.Apply(protocol.SetOverride{Duty: 30}, time.Second)
		before := s.Snapshot().Runtime.Epoch
		eff := s.Apply(c, 7*time.Second)
		rt := eff.Snapshot.Runtime
		if !eff.Applied || !eff.Restart || eff.Override {
			t.Fatalf("%v: effect %+v", c, eff)
		}
		if rt.Mode != types.ModeRunning || rt.Start != 7*time.Second || rt.OverrideDuty != 0 {
			t.Fatalf("%v: runtime %+v", c, rt)
		}
		if rt.Epoch == before {
			t.Fatalf("%v: epoch not bumped", c)
		}
	}
}

func TestStoreOverride(t *testing.T) {
	s := NewStore(0, true)
	eff := s.Apply(protocol.SetOpacity{Level: 255, Duty: 100}, time.Second)
	if !eff.Override || eff.Snapshot.Runtime.Mode != types.ModeOverride || eff.Snapshot.Runtime.OverrideDuty != 100 {
		t.Fatalf("effect %+v", eff)
	}
	eff = s.Apply(protocol.SetOverride{Duty: 180}, time.Second)
	if eff.Snapshot.Runtime.OverrideDuty != 100 {
		t.Fatalf("override duty not clamped: %d", eff.Snapshot.Runtime.OverrideDuty)
	}
}

func TestStoreBrightnessKeepsRunState(t *testing.T) {
	s := NewStore(time.Second, true)
	before := s.Snapshot().Runtime
	eff := s.Apply(protocol.SetBrightness{Pct: 40}, 9*time.Second)
	if eff.Restart || eff.Override {
		t.Fatalf("effect %+v", eff)
	}
	if eff.Snapshot.Runtime != before {
		t.Fatalf("runtime changed: %+v -> %+v", before, eff.Snapshot.Runtime)
	}
}

func TestStoreUnrecognizedNoChange(t *testing.T) {
	s := NewStore(0, true)
	before := s.Snapshot()
	eff := s.Apply(protocol.Unrecognized{Opcode: 0x42, Len: 2}, time.Minute)
	if eff.Applied {
		t.Fatalf("unrecognized applied")
	}
	if s.Snapshot() != before {
		t.Fatalf("state changed")
	}
}

func TestStoreSleepEnds(t *testing.T) {
	s := NewStore(0, true)
	eff := s.Apply(protocol.Sleep{}, time.Second)
	if eff.Snapshot.Runtime.Mode != types.ModeEnded {
		t.Fatalf("mode=%v", eff.Snapshot.Runtime.Mode)
	}
}

func TestStoreCompleteIfCurrent(t *testing.T) {
	s := NewStore(0, true)
	epoch := s.Snapshot().Runtime.Epoch
	s.Apply(protocol.Resume{}, time.Second)
	if s.CompleteIfCurrent(epoch) {
		t.Fatalf("stale epoch completed the session")
	}
	epoch = s.Snapshot().Runtime.Epoch
	if !s.CompleteIfCurrent(epoch) {
		t.Fatalf("current epoch did not complete")
	}
	if m := s.Snapshot().Runtime.Mode; m != types.ModeEnded {
		t.Fatalf("mode=%v", m)
	}
}

func TestStoreWithCurrent(t *testing.T) {
	s := NewStore(0, true)
	epoch := s.Snapshot().Runtime.Epoch
	ran := false
	if !s.WithCurrent(epoch, func() { ran = true }) || !ran {
		t.Fatalf("current write not run")
	}
	s.Apply(protocol.SetOverride{Duty: 10}, 0)
	ran = false
	if s.WithCurrent(epoch, func() { ran = true }) || ran {
		t.Fatalf("stale write ran")
	}
}

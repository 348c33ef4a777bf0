package session

import (
	"sync"
	"time"

	"lenscode-go/protocol"
	"lenscode-go/types"
	"lenscode-go/x/mathx"
)

// Snapshot is a consistent copy of the shared state.
type Snapshot struct {
	Config  types.SessionConfig
	Runtime types.SessionRuntime
}

// Effect describes what a commit changed, for the caller to act on.
type Effect struct {
	Applied  bool // false for Unrecognized
	Restart  bool // session progression restarted from zero
	Override bool // output must be driven to OverrideDuty now
	Snapshot Snapshot
}

// Store is the single synchronisation point between command handlers and
// the scheduler loop. Every multi-field update happens under mu.
type Store struct {
	mu  sync.Mutex
	cfg types.SessionConfig
	rt  types.SessionRuntime
}

// NewStore creates the boot state. With autoStart the session is running
// from now; otherwise it idles until a restart command.
func NewStore(now time.Duration, autoStart bool) *Store {
	s := &Store{cfg: types.DefaultSessionConfig()}
	s.rt.Start = now
	if autoStart {
		s.rt.Mode = types.ModeRunning
	}
	return s
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Config: s.cfg, Runtime: s.rt}
}

// Apply commits cmd at time now. Values are clamped into their documented
// ranges here, never rejected.
func (s *Store) Apply(cmd protocol.Command, now time.Duration) Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	var eff Effect
	switch c := cmd.(type) {
	case protocol.SetOpacity:
		s.override(c.Duty)
		eff.Override = true
	case protocol.SetOverride:
		s.override(c.Duty)
		eff.Override = true
	case protocol.SetStrobe:
		s.cfg.StartHz = clampHz(c.StartHz)
		s.cfg.EndHz = clampHz(c.EndHz)
		s.restart(now)
		eff.Restart = true
	case protocol.SetBreathing:
		// uint8 already spans 0..255 tenths.
		s.cfg.InhaleTenths = c.Inhale
		s.cfg.HoldInEndTenths = c.HoldIn
		s.cfg.ExhaleTenths = c.Exhale
		s.cfg.HoldOutEndTenths = c.HoldOut
		s.restart(now)
		eff.Restart = true
	case protocol.SetDuration:
		s.cfg.DurationMin = mathx.Clamp(c.Minutes, types.MinDuration, types.MaxDuration)
		s.restart(now)
		eff.Restart = true
	case protocol.SetBrightness:
		s.cfg.BrightnessPct = mathx.Min(c.Pct, types.MaxPct)
	case protocol.Resume:
		s.restart(now)
		eff.Restart = true
	case protocol.Sleep:
		s.rt.Mode = types.ModeEnded
		s.rt.Epoch++
	default:
		return Effect{Snapshot: Snapshot{Config: s.cfg, Runtime: s.rt}}
	}
	eff.Applied = true
	eff.Snapshot = Snapshot{Config: s.cfg, Runtime: s.rt}
	return eff
}

// CompleteIfCurrent moves Running to Ended when epoch still matches.
func (s *Store) CompleteIfCurrent(epoch uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt.Epoch != epoch || s.rt.Mode != types.ModeRunning {
		return false
	}
	s.rt.Mode = types.ModeEnded
	s.rt.Epoch++
	return true
}

// WithCurrent runs fn under the lock if epoch is still current. The loop
// uses it so a write computed from a stale snapshot never lands after a
// newer command.
func (s *Store) WithCurrent(epoch uint32, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt.Epoch != epoch {
		return false
	}
	fn()
	return true
}

// Locked runs fn under the lock unconditionally.
func (s *Store) Locked(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(Snapshot{Config: s.cfg, Runtime: s.rt})
}

func (s *Store) override(duty uint8) {
	s.rt.Mode = types.ModeOverride
	s.rt.OverrideDuty = mathx.Min(duty, types.MaxPct)
	s.rt.Epoch++
}

func (s *Store) restart(now time.Duration) {
	s.rt.Mode = types.ModeRunning
	s.rt.OverrideDuty = 0
	s.rt.Start = now
	s.rt.Epoch++
}

func clampHz(v uint8) uint8 { return mathx.Clamp(v, types.MinHz, types.MaxHz) }

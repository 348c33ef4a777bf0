// Package session runs the lens session: commands commit into the Store,
// and a single loop turns the committed state into actuator writes.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lenscode-go/bus"
	"lenscode-go/errcode"
	"lenscode-go/protocol"
	"lenscode-go/services/session/waveform"
	"lenscode-go/types"
	"lenscode-go/x/conv"
	"lenscode-go/x/logx"
	"lenscode-go/x/timex"
)

var (
	TopicState    = bus.T("session", "state")
	TopicProgress = bus.T("session", "progress")
)

const (
	defaultIdleTick      = 100 * time.Millisecond
	defaultProgressEvery = time.Second
)

// Actuator drives the lens. duty is 0 (clear) .. 100 (darkest).
type Actuator interface {
	Apply(duty uint8)
}

type Options struct {
	Clock         timex.Clock   // default: system clock
	IdleTick      time.Duration // default 100 ms
	ProgressEvery time.Duration // default 1 s
	AutoStart     bool
	Logger        *slog.Logger
	Conn          *bus.Connection // optional telemetry
}

// Engine owns the Store, the waveform generator and the scheduler loop.
// HandleCommand may be called from any goroutine; Run/Step from one only.
type Engine struct {
	store *Store
	out   Actuator
	clk   timex.Clock
	conn  *bus.Connection
	log   *slog.Logger

	idleTick      time.Duration
	progressEvery time.Duration

	// loop-owned
	gen          waveform.Generator
	epoch        uint32
	lastProgress time.Duration
	sentProgress bool

	stopOnce sync.Once
	stop     chan struct{}
}

func NewEngine(out Actuator, o Options) *Engine {
	if o.Clock == nil {
		o.Clock = timex.NewSystemClock()
	}
	if o.IdleTick <= 0 {
		o.IdleTick = defaultIdleTick
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = defaultProgressEvery
	}
	e := &Engine{
		store:         NewStore(o.Clock.Now(), o.AutoStart),
		out:           out,
		clk:           o.Clock,
		conn:          o.Conn,
		log:           logx.Or(o.Logger).With("svc", "session"),
		idleTick:      o.IdleTick,
		progressEvery: o.ProgressEvery,
		stop:          make(chan struct{}),
	}
	snap := e.store.Snapshot()
	e.epoch = snap.Runtime.Epoch
	e.gen.Reset(0)
	e.publishState(snap, "boot")
	return e
}

// Snapshot returns a consistent copy of config and runtime.
func (e *Engine) Snapshot() Snapshot { return e.store.Snapshot() }

// HandleCommand decodes and commits one write. It never blocks on I/O and
// returns the best-effort outcome; malformed writes are logged and dropped.
func (e *Engine) HandleCommand(b []byte) errcode.Code {
	cmd := protocol.Decode(b)
	rc := protocol.Outcome(cmd)
	if rc != errcode.OK {
		e.log.Warn("command dropped", "bytes", conv.BytesHex(b), "code", string(rc))
		return rc
	}
	e.Apply(cmd)
	return rc
}

// Apply commits an already decoded command.
func (e *Engine) Apply(cmd protocol.Command) Effect {
	eff := e.store.Apply(cmd, e.clk.Now())
	if !eff.Applied {
		return eff
	}
	rt := eff.Snapshot.Runtime
	if eff.Override {
		// Checked against the commit's epoch so that of two racing
		// overrides only the later one reaches the lens.
		e.store.WithCurrent(rt.Epoch, func() { e.out.Apply(rt.OverrideDuty) })
	}
	if rt.Mode == types.ModeEnded {
		// The loop's clear write for the cut-short cycle is now stale.
		e.store.WithCurrent(rt.Epoch, func() { e.out.Apply(0) })
	}
	e.log.Info("command", "cmd", cmd.String(), "mode", rt.Mode.String())
	e.publishState(eff.Snapshot, cmd.String())
	return eff
}

// Run loops Step until ctx is cancelled or Shutdown is called.
func (e *Engine) Run(ctx context.Context) {
	for e.Step(ctx) {
	}
}

// Step runs one scheduler iteration: a full strobe cycle while running,
// one idle tick otherwise. It reports whether the loop should continue.
func (e *Engine) Step(ctx context.Context) bool {
	if e.stopped() || ctx.Err() != nil {
		return false
	}
	snap := e.store.Snapshot()
	if snap.Runtime.Epoch != e.epoch {
		e.epoch = snap.Runtime.Epoch
		e.gen.Reset(0)
		e.sentProgress = false
	}
	if snap.Runtime.Mode != types.ModeRunning {
		// Override holds its output; idle and ended leave the lens alone.
		return e.sleep(ctx, e.idleTick)
	}

	now := e.clk.Now()
	elapsed := now - snap.Runtime.Start
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= snap.Config.Total() {
		e.complete(snap)
		return !e.stopped() && ctx.Err() == nil
	}

	fr := e.gen.Next(snap.Config, elapsed)
	e.maybePublishProgress(now, elapsed, snap, fr)

	epoch := snap.Runtime.Epoch
	if !e.write(epoch, fr.Duty) {
		// A command committed since the snapshot; re-read at once.
		return !e.stopped() && ctx.Err() == nil
	}
	if !e.sleep(ctx, fr.On) {
		return false
	}
	e.write(epoch, 0)
	return e.sleep(ctx, fr.Off)
}

// Shutdown ends the session, drives the lens clear and stops Run.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		eff := e.store.Apply(protocol.Sleep{}, e.clk.Now())
		e.store.Locked(func(Snapshot) { e.out.Apply(0) })
		close(e.stop)
		e.log.Info("engine stopped")
		e.publishState(eff.Snapshot, "shutdown")
	})
}

func (e *Engine) complete(snap Snapshot) {
	epoch := snap.Runtime.Epoch
	if !e.write(epoch, 0) {
		return
	}
	if !e.store.CompleteIfCurrent(epoch) {
		return
	}
	done := e.store.Snapshot()
	e.epoch = done.Runtime.Epoch
	e.log.Info("session complete", "minutes", snap.Config.DurationMin)
	e.publishState(done, "complete")
}

// write applies duty only if no command has committed since epoch.
func (e *Engine) write(epoch uint32, duty uint8) bool {
	return e.store.WithCurrent(epoch, func() { e.out.Apply(duty) })
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if e.stopped() {
		return false
	}
	return e.clk.Sleep(ctx, d) && !e.stopped()
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// ---- telemetry ----

func (e *Engine) publishState(snap Snapshot, cause string) {
	if e.conn == nil {
		return
	}
	st := types.SessionState{
		Mode:         snap.Runtime.Mode,
		Config:       snap.Config,
		OverrideDuty: snap.Runtime.OverrideDuty,
		Epoch:        snap.Runtime.Epoch,
		Cause:        cause,
		TS:           timex.NowMs(),
	}
	e.conn.Publish(e.conn.NewMessage(TopicState, st, true))
}

func (e *Engine) maybePublishProgress(now, elapsed time.Duration, snap Snapshot, fr waveform.Frame) {
	if e.conn == nil {
		return
	}
	if e.sentProgress && now-e.lastProgress < e.progressEvery {
		return
	}
	e.sentProgress = true
	e.lastProgress = now

	remaining := snap.Config.Total() - elapsed
	if remaining < 0 {
		remaining = 0
	}
	p := types.SessionProgress{
		Progress:   float32(fr.Progress),
		FreqHz:     float32(fr.FreqHz),
		HoldInMs:   uint32(fr.HoldIn / time.Millisecond),
		HoldOutMs:  uint32(fr.HoldOut / time.Millisecond),
		Phase:      fr.Phase,
		Duty:       fr.Duty,
		RemainingS: uint32(remaining / time.Second),
		TS:         timex.NowMs(),
	}
	e.conn.Publish(e.conn.NewMessage(TopicProgress, p, true))
}

// Package sleep decides when the device powers down: when the session has
// ended, or when the enclosure has stayed closed long enough.
package sleep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lenscode-go/bus"
	"lenscode-go/types"
	"lenscode-go/x/logx"
	"lenscode-go/x/timex"
)

var TopicSleep = bus.T("power", "sleep")

const (
	DefaultThreshold   = 5
	DefaultSampleEvery = time.Second
)

// Sensor reports whether the enclosure is closed.
type Sensor interface {
	Closed() bool
}

// PowerDown is the terminal power-down path.
type PowerDown interface {
	Sleep(reason types.SleepReason)
}

// PowerFunc adapts a function to PowerDown.
type PowerFunc func(types.SleepReason)

func (f PowerFunc) Sleep(r types.SleepReason) { f(r) }

type Options struct {
	Threshold   int           // consecutive closed samples, default 5
	SampleEvery time.Duration // default 1 s; must be <= 1 s
	Clock       timex.Clock
	Logger      *slog.Logger
	Conn        *bus.Connection
}

type Arbiter struct {
	sensor Sensor
	mode   func() types.Mode
	power  PowerDown
	clk    timex.Clock
	log    *slog.Logger
	conn   *bus.Connection

	threshold int
	every     time.Duration

	mu        sync.Mutex
	closedRun int
	requested bool
}

// New builds an arbiter. mode reports the current session mode.
func New(sensor Sensor, mode func() types.Mode, power PowerDown, o Options) *Arbiter {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SampleEvery <= 0 || o.SampleEvery > time.Second {
		o.SampleEvery = DefaultSampleEvery
	}
	if o.Clock == nil {
		o.Clock = timex.NewSystemClock()
	}
	return &Arbiter{
		sensor:    sensor,
		mode:      mode,
		power:     power,
		clk:       o.Clock,
		log:       logx.Or(o.Logger).With("svc", "sleep"),
		conn:      o.Conn,
		threshold: o.Threshold,
		every:     o.SampleEvery,
	}
}

// Sample takes one reading and requests sleep when a condition holds.
// It reports whether sleep has been requested.
func (a *Arbiter) Sample() bool {
	if a.Requested() {
		return true
	}
	if a.mode() == types.ModeEnded {
		return a.Request(types.SleepSessionEnded)
	}

	closed := a.sensor.Closed()
	a.mu.Lock()
	if closed {
		a.closedRun++
	} else {
		a.closedRun = 0
	}
	n := a.closedRun
	a.mu.Unlock()

	if n >= a.threshold {
		return a.Request(types.SleepEnclosureClosed)
	}
	return false
}

// Request asks for power-down. Only the first call after boot or Reset
// reaches the power path; it reports whether this call was that one.
func (a *Arbiter) Request(reason types.SleepReason) bool {
	a.mu.Lock()
	if a.requested {
		a.mu.Unlock()
		return false
	}
	a.requested = true
	a.mu.Unlock()

	a.log.Info("entering sleep", "reason", string(reason))
	if a.conn != nil {
		ev := types.SleepEvent{Reason: reason, TS: timex.NowMs()}
		a.conn.Publish(a.conn.NewMessage(TopicSleep, ev, true))
	}
	a.power.Sleep(reason)
	return true
}

func (a *Arbiter) Requested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requested
}

// Reset re-arms the arbiter after a wake.
func (a *Arbiter) Reset() {
	a.mu.Lock()
	a.requested = false
	a.closedRun = 0
	a.mu.Unlock()
	if a.conn != nil {
		a.conn.Publish(a.conn.NewMessage(TopicSleep, nil, true))
	}
}

// Run samples until sleep is requested or ctx is cancelled.
func (a *Arbiter) Run(ctx context.Context) {
	for a.clk.Sleep(ctx, a.every) {
		if a.Sample() {
			return
		}
	}
}

package timex

import (
	"context"
	"sync"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Clock is the time source for loops that must be testable.
// Now is monotonic and relative to the clock's origin.
type Clock interface {
	Now() time.Duration
	// Sleep waits for d and reports whether to continue (false => cancelled).
	Sleep(ctx context.Context, d time.Duration) bool
	NewTicker(d time.Duration) Ticker
}

// Ticker is the part of time.Ticker the service loops use.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// SystemClock measures from the moment it was created.
type SystemClock struct{ origin time.Time }

func NewSystemClock() *SystemClock { return &SystemClock{origin: time.Now()} }

func (c *SystemClock) Now() time.Duration { return time.Since(c.origin) }

func (c *SystemClock) Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time   { return s.t.C }
func (s systemTicker) Reset(d time.Duration) { s.t.Reset(d) }
func (s systemTicker) Stop()                 { s.t.Stop() }

// FakeClock advances only when slept on or told to. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	tickers []*fakeTicker
}

func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	c.Advance(d)
	return true
}

// Advance moves the clock forward by d (negative values are ignored).
func (c *FakeClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	for _, t := range c.tickers {
		t.fire(c.now)
	}
	c.mu.Unlock()
}

// NewTicker returns a ticker that fires as Advance or Sleep cross its
// period. Like time.Ticker it holds one pending tick and drops the rest.
func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("timex: non-positive ticker period")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{clk: c, ch: make(chan time.Time, 1), period: d, next: c.now + d}
	c.tickers = append(c.tickers, t)
	return t
}

type fakeTicker struct {
	clk    *FakeClock
	ch     chan time.Time
	period time.Duration
	next   time.Duration // guarded by clk.mu
}

// fire runs with clk.mu held.
func (t *fakeTicker) fire(now time.Duration) {
	for t.next <= now {
		select {
		case t.ch <- time.Unix(0, 0).Add(t.next):
		default:
		}
		t.next += t.period
	}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Reset(d time.Duration) {
	if d <= 0 {
		panic("timex: non-positive ticker period")
	}
	t.clk.mu.Lock()
	t.period, t.next = d, t.clk.now+d
	t.clk.mu.Unlock()
}

func (t *fakeTicker) Stop() {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	for i, x := range t.clk.tickers {
		if x == t {
			t.clk.tickers = append(t.clk.tickers[:i], t.clk.tickers[i+1:]...)
			return
		}
	}
}

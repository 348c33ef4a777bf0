//go:build !rp2040 && !rp2350

package hal

import (
	"sync"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin is a host GPIO whose level tests set directly.
type FakePin struct {
	mu     sync.RWMutex
	number int
	level  bool
	pull   Pull
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureInput(pull Pull) error {
	p.mu.Lock()
	p.pull = pull
	// An idle pulled-up input reads high.
	if pull == PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) Number() int { return p.number }

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (GPIOPin, bool) {
	return f.Get(n), true
}

// Get exposes the underlying *FakePin so tests and the simulator can drive it.
func (f *HostPinFactory) Get(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = NewFakePin(n)
		f.pins[n] = p
	}
	return p
}

func DefaultPinFactory() *HostPinFactory { return &HostPinFactory{} }

// ----------------------------- PWM (host) ------------------------------------

// FakePWM records every level written.
type FakePWM struct {
	mu     sync.Mutex
	freqHz uint64
	top    uint16
	levels []uint16
}

func (p *FakePWM) Configure(freqHz uint64, top uint16) error {
	p.mu.Lock()
	p.freqHz, p.top = freqHz, top
	p.mu.Unlock()
	return nil
}

func (p *FakePWM) Set(level uint16) {
	p.mu.Lock()
	if level > p.top {
		level = p.top
	}
	p.levels = append(p.levels, level)
	p.mu.Unlock()
}

// Last returns the most recent level, or 0 when nothing was written.
func (p *FakePWM) Last() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.levels) == 0 {
		return 0
	}
	return p.levels[len(p.levels)-1]
}

func (p *FakePWM) Levels() []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint16(nil), p.levels...)
}

func (p *FakePWM) Config() (freqHz uint64, top uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freqHz, p.top
}

type HostPWMFactory struct {
	mu   sync.Mutex
	pwms map[int]*FakePWM
}

func (f *HostPWMFactory) ByPin(n int) (PWMHandle, error) { return f.Get(n), nil }

func (f *HostPWMFactory) Get(n int) *FakePWM {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pwms == nil {
		f.pwms = make(map[int]*FakePWM)
	}
	p, ok := f.pwms[n]
	if !ok {
		p = &FakePWM{}
		f.pwms[n] = p
	}
	return p
}

func DefaultPWMFactory() *HostPWMFactory { return &HostPWMFactory{} }

// ----------------------------- Power (host) ----------------------------------

// On the host there is nothing to power down; Sleep returns to the caller.
func halt(func() bool) {}

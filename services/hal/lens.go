package hal

import (
	"fmt"
	"sync"

	"lenscode-go/errcode"
	"lenscode-go/types"
	"lenscode-go/x/mathx"
)

const (
	DefaultLensFreqHz     = 1000
	DefaultLensTop        = 1024
	DefaultLensMinVisible = 400
)

// Lens maps a logical duty (0 clear .. 100 darkest) onto the PWM. The
// liquid crystal shows nothing below MinVisible, so duty 1..100 is spread
// over MinVisible..Top and only duty 0 writes raw 0.
type Lens struct {
	mu  sync.Mutex
	pwm PWMHandle

	pin        int
	freq       uint64
	top        uint16
	minVisible uint16
	activeLow  bool

	duty uint8
	raw  uint16
}

func NewLens(pwm PWMHandle, cfg types.LensConfig) (*Lens, error) {
	if pwm == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "hal.NewLens", Msg: "nil pwm"}
	}
	l := &Lens{
		pwm:        pwm,
		pin:        cfg.Pin,
		freq:       cfg.FreqHz,
		top:        cfg.Top,
		minVisible: cfg.MinVisible,
		activeLow:  cfg.ActiveLow,
	}
	if l.freq == 0 {
		l.freq = DefaultLensFreqHz
	}
	if l.top == 0 {
		l.top = DefaultLensTop
	}
	if l.minVisible == 0 || l.minVisible > l.top {
		l.minVisible = mathx.Min(DefaultLensMinVisible, l.top)
	}
	if err := pwm.Configure(l.freq, l.top); err != nil {
		return nil, fmt.Errorf("hal: configure lens pwm on pin %d: %w", l.pin, err)
	}
	l.pwm.Set(l.toPhys(0))
	return l, nil
}

// LensRaw is the dead-zone remap used by Apply.
func LensRaw(duty uint8, minVisible, top uint16) uint16 {
	if duty == 0 {
		return 0
	}
	d := uint16(mathx.Min(duty, types.MaxPct))
	return mathx.MapU16(d, 0, types.MaxPct, minVisible, top)
}

// Apply drives the lens to duty, clamped to 0..100.
func (l *Lens) Apply(duty uint8) {
	duty = mathx.Min(duty, types.MaxPct)
	raw := LensRaw(duty, l.minVisible, l.top)

	l.mu.Lock()
	l.duty, l.raw = duty, raw
	l.pwm.Set(l.toPhys(raw))
	l.mu.Unlock()
}

func (l *Lens) Value() types.LensValue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.LensValue{Duty: l.duty, Raw: l.raw}
}

func (l *Lens) Info() types.LensInfo {
	return types.LensInfo{Pin: l.pin, FreqHz: l.freq, Top: l.top, MinVisible: l.minVisible}
}

func (l *Lens) toPhys(raw uint16) uint16 {
	if !l.activeLow {
		return raw
	}
	return l.top - raw
}

//go:build rp2040 || rp2350

package hal

import (
	"machine"
	"time"

	"lenscode-go/errcode"
	"lenscode-go/x/mathx"
)

// ----------------------------- GPIO (rp2) ------------------------------------

type rp2PinFactory struct{}

// DefaultPinFactory maps logical numbers directly to machine.Pin(n)
// (Pico GP numbering).
func DefaultPinFactory() PinFactory { return rp2PinFactory{} }

func (rp2PinFactory) ByNumber(n int) (GPIOPin, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull Pull) error {
	mode := machine.PinInput
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) Get() bool   { return r.p.Get() }
func (r *rp2Pin) Number() int { return r.n }

// ----------------------------- PWM (rp2) -------------------------------------

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type rp2PWMFactory struct{}

func DefaultPWMFactory() PWMFactory { return rp2PWMFactory{} }

func (rp2PWMFactory) ByPin(n int) (PWMHandle, error) {
	if n < 0 || n > 28 {
		return nil, errcode.UnknownPin
	}
	slice, err := machine.PWMPeripheral(machine.Pin(n))
	if err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "hal.ByPin", err)
	}
	// Even pins are channel A, odd pins channel B.
	return &rp2PWM{pin: n, ctrl: pwmGroupBySlice(slice), ch: uint8(n & 1)}, nil
}

type rp2PWM struct {
	pin   int
	ctrl  pwmCtrl
	ch    uint8
	top   uint16
	hwTop uint32
}

func (p *rp2PWM) Configure(freqHz uint64, top uint16) error {
	freqHz = mathx.Max(freqHz, 1)
	if err := p.ctrl.Configure(machine.PWMConfig{Period: uint64(time.Second) / freqHz}); err != nil {
		return err
	}
	machine.Pin(p.pin).Configure(machine.PinConfig{Mode: machine.PinPWM})
	p.top = mathx.Max(top, 1)
	p.hwTop = p.ctrl.Top()
	return nil
}

// Set scales level from 0..top to the controller's counter range.
func (p *rp2PWM) Set(level uint16) {
	if p.hwTop == 0 {
		return
	}
	level = mathx.Min(level, p.top)
	p.ctrl.Set(p.ch, uint32(level)*p.hwTop/uint32(p.top))
}

// ----------------------------- Power (rp2) -----------------------------------

// halt parks the core until wake reports true, then resets through the
// watchdog so the firmware boots into a fresh session.
func halt(wake func() bool) {
	for !wake() {
		time.Sleep(200 * time.Millisecond)
	}
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
	}
}

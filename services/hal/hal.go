// Package hal is the hardware boundary of the lens: the PWM-driven lens
// actuator, the enclosure hall sensor and the power-down path. Platform
// factories live in platform_rp2.go and platform_host.go.
package hal

import (
	"lenscode-go/bus"
)

// -----------------------------------------------------------------------------
// Platform contracts
// -----------------------------------------------------------------------------

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is the input side of a GPIO.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	Get() bool
	Number() int
}

// PWMHandle is one PWM channel. Set takes a level in 0..top as configured.
type PWMHandle interface {
	Configure(freqHz uint64, top uint16) error
	Set(level uint16)
}

type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

type PWMFactory interface {
	ByPin(n int) (PWMHandle, error)
}

// -----------------------------------------------------------------------------
// Capability topics (retained info)
// -----------------------------------------------------------------------------

var (
	TopicLensInfo = bus.T("hal", "cap", "lens", "info")
	TopicHallInfo = bus.T("hal", "cap", "hall", "info")
)

// PublishInfo announces the configured devices as retained messages.
func PublishInfo(conn *bus.Connection, lens *Lens, hall *Hall) {
	if lens != nil {
		conn.Publish(conn.NewMessage(TopicLensInfo, lens.Info(), true))
	}
	if hall != nil {
		conn.Publish(conn.NewMessage(TopicHallInfo, hall.Info(), true))
	}
}

//go:build !rp2040 && !rp2350

package serial

import (
	"context"
	"fmt"
	"time"

	"lenscode-go/errcode"

	bugserial "go.bug.st/serial"
)

// HostPort adapts a go.bug.st/serial port to Port and io.Writer.
type HostPort struct {
	p bugserial.Port
}

const pollTimeout = 50 * time.Millisecond

// Open opens a host serial device (for example /dev/ttyACM0) in 8N1.
func Open(name string, baud int) (*HostPort, error) {
	if baud <= 0 {
		baud = 115200
	}
	p, err := bugserial.Open(name, &bugserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugserial.NoParity,
		StopBits: bugserial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(pollTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("serial: set timeout on %s: %w", name, err)
	}
	return &HostPort{p: p}, nil
}

// Ports lists the serial devices present on the host.
func Ports() ([]string, error) { return bugserial.GetPortsList() }

// RecvSomeContext polls until at least one byte arrives or ctx ends.
func (h *HostPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		n, err := h.p.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

func (h *HostPort) Write(b []byte) (int, error) { return h.p.Write(b) }

// Send frames and writes one command payload.
func (h *HostPort) Send(payload []byte) error {
	frame, err := Encode(payload)
	if err != nil {
		return err
	}
	if _, err := h.p.Write(frame); err != nil {
		return errcode.Wrap(errcode.Error, "serial.Send", err)
	}
	return nil
}

func (h *HostPort) Close() error { return h.p.Close() }

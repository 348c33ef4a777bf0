//go:build !rp2040 && !rp2350

package client

import "lenscode-go/transport/serial"

// DialSerial opens a wired link to the glasses. Commands travel as
// length-prefixed frames.
func DialSerial(name string, baud int) (Sender, error) {
	p, err := serial.Open(name, baud)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SerialPorts lists candidate serial devices.
func SerialPorts() ([]string, error) { return serial.Ports() }

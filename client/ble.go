//go:build !rp2040 && !rp2350

package client

import (
	"context"
	"sort"
	"strings"
	"time"

	"tinygo.org/x/bluetooth"

	"lenscode-go/errcode"
	"lenscode-go/transport/gatt"
)

// Device is one advertising pair of glasses.
type Device struct {
	Name    string
	Address string
	RSSI    int16

	addr bluetooth.Address
}

func (d Device) String() string {
	return d.Name + " (" + d.Address + ")"
}

// matches reports whether an advertisement belongs to the glasses.
func matches(name string) bool {
	return strings.Contains(name, gatt.DefaultName)
}

// Scan listens for advertisements until timeout or ctx ends and returns the
// glasses seen, strongest signal first.
func Scan(ctx context.Context, adapter *bluetooth.Adapter, timeout time.Duration) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, errcode.Wrap(errcode.NotConnected, "client.Scan", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = adapter.StopScan()
	}()

	seen := map[string]Device{}
	// Scan blocks until StopScan; the callback runs on the scanning goroutine.
	err := adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		if !matches(r.LocalName()) {
			return
		}
		addr := r.Address.String()
		seen[addr] = Device{Name: r.LocalName(), Address: addr, RSSI: r.RSSI, addr: r.Address}
	})
	if err != nil && ctx.Err() == nil {
		return nil, errcode.Wrap(errcode.Error, "client.Scan", err)
	}

	out := make([]Device, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RSSI > out[j].RSSI })
	return out, nil
}

// BLE sends commands through the command characteristic.
type BLE struct {
	dev  bluetooth.Device
	char bluetooth.DeviceCharacteristic
}

// DialBLE connects to the glasses at addr, or to the strongest one found
// when addr is empty.
func DialBLE(ctx context.Context, adapter *bluetooth.Adapter, addr string, timeout time.Duration) (*BLE, error) {
	found, err := Scan(ctx, adapter, timeout)
	if err != nil {
		return nil, err
	}
	var target *Device
	for i := range found {
		if addr == "" || strings.EqualFold(found[i].Address, addr) {
			target = &found[i]
			break
		}
	}
	if target == nil {
		msg := "no glasses found; is the device powered on?"
		if addr != "" {
			msg = "no glasses at " + addr
		}
		return nil, &errcode.E{C: errcode.NotFound, Op: "client.DialBLE", Msg: msg}
	}

	type result struct {
		dev bluetooth.Device
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := adapter.Connect(target.addr, bluetooth.ConnectionParams{})
		done <- result{d, err}
	}()
	var dev bluetooth.Device
	select {
	case r := <-done:
		if r.err != nil {
			return nil, errcode.Wrap(errcode.NotConnected, "client.DialBLE", r.err)
		}
		dev = r.dev
	case <-time.After(timeout):
		return nil, &errcode.E{C: errcode.Timeout, Op: "client.DialBLE", Msg: "connect " + target.Address}
	case <-ctx.Done():
		return nil, errcode.Wrap(errcode.Timeout, "client.DialBLE", ctx.Err())
	}

	svcs, err := dev.DiscoverServices([]bluetooth.UUID{bluetooth.New16BitUUID(gatt.ServiceUUID16)})
	if err != nil || len(svcs) == 0 {
		_ = dev.Disconnect()
		return nil, &errcode.E{C: errcode.NotFound, Op: "client.DialBLE", Msg: "lens service", Err: err}
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{bluetooth.New16BitUUID(gatt.CommandCharUUID16)})
	if err != nil || len(chars) == 0 {
		_ = dev.Disconnect()
		return nil, &errcode.E{C: errcode.NotFound, Op: "client.DialBLE", Msg: "command characteristic", Err: err}
	}
	return &BLE{dev: dev, char: chars[0]}, nil
}

func (b *BLE) Send(p []byte) error {
	if _, err := b.char.WriteWithoutResponse(p); err != nil {
		return errcode.Wrap(errcode.NotConnected, "ble.Send", err)
	}
	return nil
}

func (b *BLE) Close() error { return b.dev.Disconnect() }

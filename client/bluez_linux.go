package client

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	bluezName    = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	propsIface   = "org.freedesktop.DBus.Properties"
)

// EnsureAdapter checks that the BlueZ adapter (for example "hci0") is
// powered and powers it on when it is not.
func EnsureAdapter(name string) error {
	if name == "" {
		name = "hci0"
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(bluezName, dbus.ObjectPath("/org/bluez/"+name))
	var v dbus.Variant
	if err := obj.Call(propsIface+".Get", 0, adapterIface, "Powered").Store(&v); err != nil {
		return fmt.Errorf("adapter %s: %w (is bluetooth.service running?)", name, err)
	}
	if on, ok := v.Value().(bool); ok && on {
		return nil
	}
	if err := obj.Call(propsIface+".Set", 0, adapterIface, "Powered", dbus.MakeVariant(true)).Err; err != nil {
		return fmt.Errorf("power on %s: %w", name, err)
	}
	return nil
}

package types

import "time"

// DeviceConfig is the per-device profile. Session parameters are not part of
// it: sessions always boot with DefaultSessionConfig.
type DeviceConfig struct {
	Lens      LensConfig      `yaml:"lens" json:"lens"`
	Hall      HallConfig      `yaml:"hall" json:"hall"`
	Sleep     SleepConfig     `yaml:"sleep" json:"sleep"`
	Session   SessionTiming   `yaml:"session" json:"session"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat" json:"heartbeat"`
	BLE       BLEConfig       `yaml:"ble" json:"ble"`
	UART      UARTConfig      `yaml:"uart" json:"uart"`
}

type LensConfig struct {
	Pin        int    `yaml:"pin" json:"pin"`
	FreqHz     uint64 `yaml:"freq_hz" json:"freq_hz"`
	Top        uint16 `yaml:"top" json:"top"`
	MinVisible uint16 `yaml:"min_visible" json:"min_visible"`
	ActiveLow  bool   `yaml:"active_low" json:"active_low"`
}

type HallConfig struct {
	Pin        int  `yaml:"pin" json:"pin"`
	ActiveHigh bool `yaml:"active_high" json:"active_high"`
}

type SleepConfig struct {
	Threshold   int           `yaml:"threshold" json:"threshold"`
	SampleEvery time.Duration `yaml:"sample_every" json:"sample_every"`
}

type SessionTiming struct {
	AutoStart       bool          `yaml:"autostart" json:"autostart"`
	IdleTick        time.Duration `yaml:"idle_tick" json:"idle_tick"`
	ProgressPublish time.Duration `yaml:"progress_publish" json:"progress_publish"`
}

type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
}

type BLEConfig struct {
	Name string `yaml:"name" json:"name"`
}

type UARTConfig struct {
	ID   string `yaml:"id" json:"id"`
	Baud uint32 `yaml:"baud" json:"baud"`
	TX   int    `yaml:"tx" json:"tx"`
	RX   int    `yaml:"rx" json:"rx"`
}

// Package config resolves the per-device profile and publishes it on the
// bus as retained config/<section> messages.
package config

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lenscode-go/bus"
	"lenscode-go/types"
	"lenscode-go/x/logx"

	"gopkg.in/yaml.v3"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

//go:embed profiles/*.yaml
var profiles embed.FS

// EmbeddedConfigLookup allows overriding how profiles are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, err := profiles.ReadFile("profiles/" + device + ".yaml")
	return b, err == nil
}

// Default is the profile every device starts from; YAML overrides only the
// keys it names.
func Default() types.DeviceConfig {
	return types.DeviceConfig{
		Lens:      types.LensConfig{Pin: 15, FreqHz: 1000, Top: 1024, MinVisible: 400},
		Hall:      types.HallConfig{Pin: 4, ActiveHigh: true},
		Sleep:     types.SleepConfig{Threshold: 5, SampleEvery: time.Second},
		Session:   types.SessionTiming{AutoStart: true, IdleTick: 100 * time.Millisecond, ProgressPublish: time.Second},
		Heartbeat: types.HeartbeatConfig{Interval: 30 * time.Second},
		BLE:       types.BLEConfig{Name: "Smart_Glasses"},
		UART:      types.UARTConfig{ID: "uart0", Baud: 115200, TX: 0, RX: 1},
	}
}

// Load returns the profile for device with defaults filled in.
func Load(device string) (types.DeviceConfig, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok {
		return types.DeviceConfig{}, errors.New("no embedded config for device: " + device)
	}
	return Parse(raw)
}

// Parse decodes a YAML profile over Default and repairs unusable values.
func Parse(raw []byte) (types.DeviceConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return types.DeviceConfig{}, fmt.Errorf("config: decode profile: %w", err)
	}
	def := Default()
	if cfg.Sleep.Threshold <= 0 {
		cfg.Sleep.Threshold = def.Sleep.Threshold
	}
	// The enclosure must be sampled at least once a second.
	if cfg.Sleep.SampleEvery <= 0 || cfg.Sleep.SampleEvery > time.Second {
		cfg.Sleep.SampleEvery = def.Sleep.SampleEvery
	}
	if cfg.Session.IdleTick <= 0 {
		cfg.Session.IdleTick = def.Session.IdleTick
	}
	if cfg.Session.ProgressPublish <= 0 {
		cfg.Session.ProgressPublish = def.Session.ProgressPublish
	}
	if cfg.Heartbeat.Interval <= 0 {
		cfg.Heartbeat.Interval = def.Heartbeat.Interval
	}
	if cfg.Lens.Top == 0 {
		cfg.Lens.Top = def.Lens.Top
	}
	if cfg.Lens.MinVisible > cfg.Lens.Top {
		cfg.Lens.MinVisible = cfg.Lens.Top
	}
	if cfg.BLE.Name == "" {
		cfg.BLE.Name = def.BLE.Name
	}
	return cfg, nil
}

// Sections splits a profile into its retained bus messages.
func Sections(cfg types.DeviceConfig) map[string]any {
	return map[string]any{
		"lens":      cfg.Lens,
		"hall":      cfg.Hall,
		"sleep":     cfg.Sleep,
		"session":   cfg.Session,
		"heartbeat": cfg.Heartbeat,
		"ble":       cfg.BLE,
		"uart":      cfg.UART,
	}
}

// Topic returns the retained topic for a section.
func Topic(section string) bus.Topic { return bus.T(configPrefix, section) }

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  *slog.Logger
}

func NewConfigService(log *slog.Logger) *ConfigService {
	return &ConfigService{Name: serviceName, log: logx.Or(log).With("svc", serviceName)}
}

// publishConfig resolves the device profile and publishes each section as
// a retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}
	cfg, err := Load(device)
	if err != nil {
		return err
	}
	for k, v := range Sections(cfg) {
		conn.Publish(&bus.Message{Topic: Topic(k), Payload: v, Retained: true})
	}
	s.log.Info("profile published", "device", device)
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Error("publish profile", "err", err)
		}
	}()
}

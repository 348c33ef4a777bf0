// config/config_test.go
package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"lenscode-go/bus"
	"lenscode-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerSection(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "pico" {
			return nil, false
		}
		return []byte("heartbeat:\n  interval: 2s\nble:\n  name: Test_Lens\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(nil)

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	svc.Start(ctx, conn)

	// Subscribe; retained messages arrive whether or not publishing won the race.
	sub := conn.Subscribe(bus.T(configPrefix, bus.WildRest))

	want := len(Sections(Default()))
	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < want && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic.At(1).(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic.At(1))
			}
			if !m.Retained {
				t.Fatalf("%s not retained", key)
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != want {
		t.Fatalf("expected %d sections, got %d (%v)", want, len(got), got)
	}
	if hb, ok := got["heartbeat"].(types.HeartbeatConfig); !ok || hb.Interval != 2*time.Second {
		t.Fatalf("heartbeat payload = %#v", got["heartbeat"])
	}
	if ble, ok := got["ble"].(types.BLEConfig); !ok || ble.Name != "Test_Lens" {
		t.Fatalf("ble payload = %#v", got["ble"])
	}
	// Untouched sections keep their defaults.
	if s, ok := got["sleep"].(types.SleepConfig); !ok || s.Threshold != 5 {
		t.Fatalf("sleep payload = %#v", got["sleep"])
	}
}

func TestLoadEmbeddedProfiles(t *testing.T) {
	pico, err := Load("pico")
	if err != nil {
		t.Fatalf("pico: %v", err)
	}
	if pico.Lens.MinVisible != 400 || pico.Hall.Pin != 4 || !pico.Hall.ActiveHigh || !pico.Session.AutoStart {
		t.Fatalf("pico profile %+v", pico)
	}
	sim, err := Load("sim")
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if sim.Hall.ActiveHigh || sim.Session.ProgressPublish != 500*time.Millisecond || sim.Lens.Top != 1024 {
		t.Fatalf("sim profile %+v", sim)
	}
	if _, err := Load("nope"); err == nil {
		t.Fatalf("expected error for unknown device")
	}
}

func TestParseRepairsValues(t *testing.T) {
	cfg, err := Parse([]byte("sleep:\n  threshold: 0\n  sample_every: 5s\nlens:\n  top: 255\n  min_visible: 400\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sleep.Threshold != 5 || cfg.Sleep.SampleEvery != time.Second {
		t.Fatalf("sleep %+v", cfg.Sleep)
	}
	if cfg.Lens.MinVisible != 255 {
		t.Fatalf("lens %+v", cfg.Lens)
	}
	if _, err := Parse([]byte("lens: [1, 2")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{}
	get := func(k string) string { return vars[k] }

	env, err := loadEnv(get)
	if err != nil {
		t.Fatal(err)
	}
	if env.AppEnv != "dev" || !env.Pretty() || env.Device != "sim" || env.MQTTPort != 1883 || env.HTTPAddr != ":8080" || env.LogLevel != slog.LevelInfo {
		t.Fatalf("defaults %+v", env)
	}

	vars = map[string]string{"APP_ENV": "prod", "LOG_LEVEL": "debug", "MQTT_BROKER": "localhost", "MQTT_PORT": " 1884 "}
	env, err = loadEnv(get)
	if err != nil {
		t.Fatal(err)
	}
	if env.Pretty() || env.LogLevel != slog.LevelDebug || env.MQTTBroker != "localhost" || env.MQTTPort != 1884 {
		t.Fatalf("env %+v", env)
	}

	for _, bad := range []map[string]string{
		{"APP_ENV": "staging"},
		{"LOG_LEVEL": "loud"},
		{"MQTT_PORT": "x"},
	} {
		vars = bad
		if _, err := loadEnv(get); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

//go:build rp2040 || rp2350

// Firmware for the lens glasses: commands arrive over BLE and UART, the
// session engine drives the lens and the sleep arbiter powers down when the
// glasses go back in their case or the session ends.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"tinygo.org/x/bluetooth"

	"lenscode-go/bus"
	"lenscode-go/errcode"
	"lenscode-go/services/config"
	"lenscode-go/services/hal"
	"lenscode-go/services/heartbeat"
	"lenscode-go/services/session"
	"lenscode-go/services/sleep"
	"lenscode-go/transport/gatt"
	"lenscode-go/transport/serial"
	"lenscode-go/types"
	"lenscode-go/x/logx"
)

const device = "pico"

var version = "dev"

func main() {
	// Allow USB CDC to enumerate before we log.
	time.Sleep(2 * time.Second)

	log := logx.New(os.Stdout, logx.Options{Level: slog.LevelInfo, App: "lenscode", Version: version})
	log.Info("boot", "device", device)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, device)

	cfg, err := config.Load(device)
	if err != nil {
		log.Error("profile", "err", err)
		cfg = config.Default()
	}

	b := bus.NewBus(4)
	config.NewConfigService(log).Start(ctx, b.NewConnection("config"))

	pwm, err := hal.DefaultPWMFactory().ByPin(cfg.Lens.Pin)
	if err != nil {
		fatal(log, "lens pwm", err)
	}
	lens, err := hal.NewLens(pwm, cfg.Lens)
	if err != nil {
		fatal(log, "lens", err)
	}
	pin, ok := hal.DefaultPinFactory().ByNumber(cfg.Hall.Pin)
	if !ok {
		fatal(log, "hall pin", errcode.UnknownPin)
	}
	hall, err := hal.NewHall(pin, cfg.Hall)
	if err != nil {
		fatal(log, "hall", err)
	}
	hal.PublishInfo(b.NewConnection("hal"), lens, hall)
	power := hal.NewPower(lens, hall, log)

	eng := session.NewEngine(lens, session.Options{
		IdleTick:      cfg.Session.IdleTick,
		ProgressEvery: cfg.Session.ProgressPublish,
		AutoStart:     cfg.Session.AutoStart,
		Logger:        log,
		Conn:          b.NewConnection("session"),
	})

	arb := sleep.New(hall,
		func() types.Mode { return eng.Snapshot().Runtime.Mode },
		sleep.PowerFunc(func(r types.SleepReason) {
			eng.Shutdown()
			power.Sleep(r)
		}),
		sleep.Options{
			Threshold:   cfg.Sleep.Threshold,
			SampleEvery: cfg.Sleep.SampleEvery,
			Logger:      log,
			Conn:        b.NewConnection("sleep"),
		})

	_ = heartbeat.New(log, nil).Start(ctx, b.NewConnection("heartbeat"))

	// Either link may be missing; the session still runs its default program.
	if err := gatt.New(bluetooth.DefaultAdapter, cfg.BLE.Name, eng.HandleCommand, log).Start(); err != nil {
		log.Error("ble unavailable", "err", err)
	}
	if uart, err := serial.OpenUART(cfg.UART); err != nil {
		log.Error("uart unavailable", "err", err)
	} else {
		go func() {
			if err := serial.Listen(ctx, uart, eng.HandleCommand, log); err != nil {
				log.Error("uart listener stopped", "err", err)
			}
		}()
	}

	go arb.Run(ctx)
	eng.Run(ctx)

	// Shutdown stopped the loop; the power-down path resets the chip.
	select {}
}

func fatal(log *slog.Logger, what string, err error) {
	log.Error(what, "err", err)
	for {
		time.Sleep(time.Second)
	}
}

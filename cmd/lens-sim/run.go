//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lenscode-go/bus"
	"lenscode-go/services/bridge"
	"lenscode-go/services/config"
	"lenscode-go/services/hal"
	"lenscode-go/services/heartbeat"
	"lenscode-go/services/httpapi"
	"lenscode-go/services/session"
	"lenscode-go/services/sleep"
	"lenscode-go/types"
	"lenscode-go/x/timex"
)

// sim is the wired device stack.
type sim struct {
	bus    *bus.Bus
	eng    *session.Engine
	arb    *sleep.Arbiter
	hall   *hal.FakePin
	pwm    *hal.FakePWM
	lens   *hal.Lens
	sensor *hal.Hall
	power  *hal.Power
	router *chi.Mux
	clk    timex.Clock

	activeHigh bool

	// asleep is closed once the power-down path has run.
	asleep chan struct{}
}

func newSim(cfg types.DeviceConfig, clk timex.Clock, log *slog.Logger) (*sim, error) {
	b := bus.NewBus(8)
	pins := hal.DefaultPinFactory()
	pwms := hal.DefaultPWMFactory()

	s := &sim{bus: b, clk: clk, pwm: pwms.Get(cfg.Lens.Pin), hall: pins.Get(cfg.Hall.Pin), activeHigh: cfg.Hall.ActiveHigh, asleep: make(chan struct{})}

	lens, err := hal.NewLens(s.pwm, cfg.Lens)
	if err != nil {
		return nil, err
	}
	hall, err := hal.NewHall(s.hall, cfg.Hall)
	if err != nil {
		return nil, err
	}
	s.lens, s.sensor = lens, hall
	// The glasses start out of their case.
	s.setClosed(false)
	hal.PublishInfo(b.NewConnection("hal"), lens, hall)
	s.power = hal.NewPower(lens, hall, log)

	s.eng = session.NewEngine(lens, session.Options{
		Clock:         clk,
		IdleTick:      cfg.Session.IdleTick,
		ProgressEvery: cfg.Session.ProgressPublish,
		AutoStart:     cfg.Session.AutoStart,
		Logger:        log,
		Conn:          b.NewConnection("session"),
	})
	s.arb = sleep.New(hall,
		func() types.Mode { return s.eng.Snapshot().Runtime.Mode },
		sleep.PowerFunc(func(r types.SleepReason) {
			s.eng.Shutdown()
			s.power.Sleep(r)
			close(s.asleep)
		}),
		sleep.Options{
			Threshold:   cfg.Sleep.Threshold,
			SampleEvery: cfg.Sleep.SampleEvery,
			Clock:       clk,
			Logger:      log,
			Conn:        b.NewConnection("sleep"),
		})

	s.router = httpapi.NewRouter(s.eng, log)
	s.router.Get("/sim/hw", s.hardware)
	s.router.Post("/sim/enclosure/{state}", s.setEnclosure)
	return s, nil
}

// setEnclosure moves the simulated glasses in or out of their case.
func (s *sim) setEnclosure(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "state") {
	case "closed":
		s.setClosed(true)
	case "open":
		s.setClosed(false)
	default:
		http.Error(w, "state must be open or closed", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type hwResponse struct {
	Lens types.LensValue `json:"lens"`
	Hall types.HallValue `json:"hall"`
}

// hardware reports what the simulated lens and sensor currently see.
func (s *sim) hardware(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(hwResponse{Lens: s.lens.Value(), Hall: s.sensor.Value()})
}

func (s *sim) setClosed(closed bool) { s.hall.Set(closed == s.activeHigh) }

// run serves the simulator until ctx ends or the device powers down.
func run(ctx context.Context, env config.Env, log *slog.Logger) error {
	cfg, err := config.Load(env.Device)
	if err != nil {
		log.Warn("no profile, using defaults", "device", env.Device, "err", err)
		cfg = config.Default()
	}
	s, err := newSim(cfg, timex.NewSystemClock(), log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.WithValue(ctx, config.CtxDeviceKey, env.Device))
	defer cancel()

	config.NewConfigService(log).Start(ctx, s.bus.NewConnection("config"))
	_ = heartbeat.New(log, s.clk).Start(ctx, s.bus.NewConnection("heartbeat"))

	if env.MQTTBroker != "" {
		conn := s.bus.NewConnection("bridge")
		conn.Publish(conn.NewMessage(bridge.TopicConfig, bridge.Config{
			Broker: env.MQTTBroker,
			Port:   env.MQTTPort,
			Device: env.Device,
		}, true))
		go bridge.Start(ctx, conn, s.eng.HandleCommand, log)
	} else {
		log.Info("mqtt bridge disabled (MQTT_BROKER unset)")
	}

	go s.eng.Run(ctx)
	go s.arb.Run(ctx)

	srv := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", env.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case <-s.asleep:
		log.Info("device asleep")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	s.eng.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

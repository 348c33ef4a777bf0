//go:build !rp2040 && !rp2350

// Command lens-sim runs the lens firmware stack on a host: fake pins, the
// HTTP API in place of BLE and an optional MQTT bridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lenscode-go/services/config"
	"lenscode-go/x/logx"
)

const appName = "lens-sim"

// Default version is "dev" if not set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logx.New(os.Stdout, logx.Options{
		Level:   env.LogLevel,
		Pretty:  env.Pretty(),
		App:     appName,
		Version: version,
	})
	log.Info("starting",
		"version", version,
		"env", env.AppEnv,
		"device", env.Device,
		"log_level", env.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
	log.Info("shutting down")
}

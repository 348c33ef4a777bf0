package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"lenscode-go/x/logx"
	"lenscode-go/x/strx"
)

// Env is the host-side process configuration.
type Env struct {
	AppEnv     string // dev | prod
	LogLevel   slog.Level
	Device     string
	MQTTBroker string // empty disables the bridge
	MQTTPort   int
	HTTPAddr   string
}

func (e Env) Pretty() bool { return e.AppEnv == "dev" }

// LoadEnv reads APP_ENV, LOG_LEVEL, LENS_DEVICE, MQTT_BROKER, MQTT_PORT and
// HTTP_ADDR.
func LoadEnv() (Env, error) { return loadEnv(os.Getenv) }

func loadEnv(get func(string) string) (Env, error) {
	appEnv := strx.Coalesce(get("APP_ENV"), "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Env{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := logx.ParseLevel(strings.TrimSpace(get("LOG_LEVEL")))
	if err != nil {
		return Env{}, err
	}

	portStr := strx.Coalesce(get("MQTT_PORT"), "1883")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Env{}, fmt.Errorf("invalid MQTT_PORT %q", portStr)
	}

	return Env{
		AppEnv:     appEnv,
		LogLevel:   level,
		Device:     strx.Coalesce(get("LENS_DEVICE"), "sim"),
		MQTTBroker: strings.TrimSpace(get("MQTT_BROKER")),
		MQTTPort:   port,
		HTTPAddr:   strx.Coalesce(get("HTTP_ADDR"), ":8080"),
	}, nil
}

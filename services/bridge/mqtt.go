package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Link is the broker connection used by the bridge.
type Link interface {
	Connect(ctx context.Context) error
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, fn func(payload []byte)) error
	Close()
}

// Dial builds the broker link. Tests replace it.
var Dial = func(cfg Config, log *slog.Logger) (Link, error) {
	return newPahoLink(cfg, log), nil
}

const (
	qos            = 1
	publishTimeout = 5 * time.Second
)

type pahoLink struct {
	client    mqtt.Client
	log       *slog.Logger
	connected atomic.Bool
}

func newPahoLink(cfg Config, log *slog.Logger) *pahoLink {
	l := &pahoLink{log: log}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		l.connected.Store(true)
		log.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.connected.Store(false)
		log.Warn("mqtt connection lost", "error", err)
	})

	l.client = mqtt.NewClient(opts)
	return l
}

// Connect waits for the initial connection while respecting ctx.
func (l *pahoLink) Connect(ctx context.Context) error {
	token := l.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (l *pahoLink) Publish(topic string, retained bool, payload []byte) error {
	if !l.connected.Load() {
		return fmt.Errorf("mqtt client not connected")
	}
	token := l.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	return token.Error()
}

func (l *pahoLink) Subscribe(topic string, fn func(payload []byte)) error {
	token := l.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		fn(m.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	return token.Error()
}

func (l *pahoLink) Close() {
	l.client.Disconnect(250)
	l.connected.Store(false)
}

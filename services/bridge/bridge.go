// bridge/bridge.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lenscode-go/bus"
	"lenscode-go/errcode"
	"lenscode-go/x/conv"
	"lenscode-go/x/logx"
)

// -----------------------------------------------------------------------------
// Public entry point
// -----------------------------------------------------------------------------

// CommandHandler receives raw command bytes arriving from MQTT.
type CommandHandler func(b []byte) errcode.Code

var (
	TopicConfig = bus.T("config", "bridge")
	TopicState  = bus.T("bridge", "state")
)

// Start runs the bridge until ctx is cancelled. It waits for a Config on
// config/bridge and (re)connects to the broker whenever one arrives.
func Start(ctx context.Context, conn *bus.Connection, h CommandHandler, log *slog.Logger) {
	s := &Service{
		conn:       conn,
		handler:    h,
		log:        logx.Or(log).With("svc", "bridge"),
		stateTopic: TopicState,
	}
	s.run(ctx)
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config is published on config/bridge.
type Config struct {
	Broker   string `json:"broker"`
	Port     int    `json:"port"`
	ClientID string `json:"client_id"`
	Device   string `json:"device"` // MQTT topic namespace: lens/<device>/...
}

// Forwarded bus topics and their MQTT leaf names.
var forwards = []struct {
	topic bus.Topic
	leaf  string
}{
	{bus.T("session", "state"), "state"},
	{bus.T("session", "progress"), "progress"},
	{bus.T("power", "sleep"), "sleep"},
}

// MQTTTopic returns lens/<device>/<leaf>.
func MQTTTopic(device, leaf string) string { return "lens/" + device + "/" + leaf }

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn       *bus.Connection
	handler    CommandHandler
	log        *slog.Logger
	stateTopic bus.Topic

	mu     sync.Mutex
	curRun context.CancelFunc
}

// run waits for config and supervises a single link instance.
func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, cfg)
}

// -----------------------------------------------------------------------------
// Link supervision and I/O
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg Config) {
	link, err := Dial(cfg, s.log)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}
	defer link.Close()

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		if err := link.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		break
	}

	s.publishState("up", "link_established", nil)
	if err := s.handleLink(ctx, link, cfg.Device); err != nil {
		s.publishState("error", "link_failed", err)
	}
}

// handleLink mirrors telemetry to MQTT and feeds MQTT commands to the
// handler until ctx ends.
func (s *Service) handleLink(ctx context.Context, link Link, device string) error {
	cmdTopic := MQTTTopic(device, "cmd")
	err := link.Subscribe(cmdTopic, func(payload []byte) {
		rc := s.handler(payload)
		s.log.Debug("mqtt command", "bytes", conv.BytesHex(payload), "code", string(rc))
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", cmdTopic, err)
	}

	// One fan-in channel keeps publishing on this goroutine.
	type fwd struct {
		leaf string
		msg  *bus.Message
	}
	in := make(chan fwd, 16)
	for _, f := range forwards {
		sub := s.conn.Subscribe(f.topic)
		defer s.conn.Unsubscribe(sub)
		go func(leaf string, sub *bus.Subscription) {
			for m := range sub.Channel() {
				select {
				case in <- fwd{leaf, m}:
				case <-ctx.Done():
					return
				}
			}
		}(f.leaf, sub)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-in:
			data, err := Encode(f.msg.Payload)
			if err != nil {
				s.log.Warn("encode telemetry", "leaf", f.leaf, "err", err)
				continue
			}
			if err := link.Publish(MQTTTopic(device, f.leaf), f.msg.Retained, data); err != nil {
				s.log.Warn("mqtt publish", "leaf", f.leaf, "err", err)
			}
		}
	}
}

// Encode renders a bus payload as MQTT JSON. A nil payload (cleared
// retained topic) becomes an empty message.
func Encode(p any) ([]byte, error) {
	if p == nil {
		return []byte{}, nil
	}
	return json.Marshal(p)
}

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func decodeConfig(p any) (Config, error) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		cfg = v
	case []byte:
		if err := json.Unmarshal(v, &cfg); err != nil {
			return cfg, err
		}
	case string:
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config payload type: %T", p)
	}
	if cfg.Broker == "" {
		return cfg, errors.New("bridge config: broker is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 1883
	}
	if cfg.Device == "" {
		cfg.Device = "lens"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "lenscode-" + cfg.Device
	}
	return cfg, nil
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,  // "up", "degraded", "error", "idle"
		"status": status, // short machine string
		"ts_ms":  time.Now().UnixMilli(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(s.stateTopic, payload, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	var cur = min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

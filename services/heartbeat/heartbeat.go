// Package heartbeat periodically logs where the session is, from the
// retained session telemetry.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"lenscode-go/bus"
	"lenscode-go/types"
	"lenscode-go/x/logx"
	"lenscode-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicSessionState    = bus.T("session", "state")
	topicSessionProgress = bus.T("session", "progress")
)

const defaultInterval = 30 * time.Second

type Service struct {
	log *slog.Logger
	clk timex.Clock

	state    types.SessionState
	progress types.SessionProgress
	haveProg bool
}

// New builds the reporter. A nil clock means the system clock.
func New(log *slog.Logger, clk timex.Clock) *Service {
	if clk == nil {
		clk = timex.NewSystemClock()
	}
	return &Service{log: logx.Or(log).With("svc", "heartbeat"), clk: clk}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, ready chan<- struct{}) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	stSub := conn.Subscribe(topicSessionState)
	prSub := conn.Subscribe(topicSessionProgress)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(stSub)
	defer conn.Unsubscribe(prSub)

	tick := s.clk.NewTicker(defaultInterval)
	defer tick.Stop()
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("heartbeat service stopping")
			return
		case <-tick.C():
			s.beat()
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(types.HeartbeatConfig); ok && c.Interval > 0 {
				tick.Reset(c.Interval)
				s.log.Debug("interval set", "interval", c.Interval)
			}
		case msg := <-stSub.Channel():
			if st, ok := msg.Payload.(types.SessionState); ok {
				s.state = st
			}
		case msg := <-prSub.Channel():
			if p, ok := msg.Payload.(types.SessionProgress); ok {
				s.progress = p
				s.haveProg = true
			}
		}
	}
}

func (s *Service) beat() {
	if s.state.Mode != types.ModeRunning || !s.haveProg {
		s.log.Info("heartbeat", "mode", s.state.Mode.String())
		return
	}
	p := s.progress
	s.log.Info("session progress",
		"hz", p.FreqHz,
		"inhale_ms", uint32(s.state.Config.Inhale()/time.Millisecond),
		"hold_in_ms", p.HoldInMs,
		"exhale_ms", uint32(s.state.Config.Exhale()/time.Millisecond),
		"hold_out_ms", p.HoldOutMs,
		"remaining_s", p.RemainingS,
	)
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn, nil)
	return nil
}

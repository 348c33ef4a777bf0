package heartbeat

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"lenscode-go/bus"
	"lenscode-go/types"
	"lenscode-go/x/timex"
)

type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (w *syncBuf) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncBuf) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func TestHeartbeatLogsProgress(t *testing.T) {
	var out syncBuf
	log := slog.New(slog.NewTextHandler(&out, nil))

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	cfg := types.DefaultSessionConfig()
	pub.Publish(pub.NewMessage(topicSessionState, types.SessionState{Mode: types.ModeRunning, Config: cfg}, true))
	pub.Publish(pub.NewMessage(topicSessionProgress, types.SessionProgress{FreqHz: 11, HoldInMs: 500, RemainingS: 420}, true))
	pub.Publish(pub.NewMessage(topicConfigHeartbeat, types.HeartbeatConfig{Interval: 20 * time.Millisecond}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(log, nil)
	ready := make(chan struct{})
	go svc.serviceLoop(ctx, b.NewConnection("heartbeat"), ready)
	<-ready

	waitFor(t, time.Second, func() bool { return strings.Contains(out.String(), "session progress") })
	s := out.String()
	for _, want := range []string{"hz=11", "inhale_ms=4000", "hold_in_ms=500", "remaining_s=420"} {
		if !strings.Contains(s, want) {
			t.Fatalf("log missing %q:\n%s", want, s)
		}
	}
}

func TestHeartbeatIdleMode(t *testing.T) {
	var out syncBuf
	log := slog.New(slog.NewTextHandler(&out, nil))

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(topicSessionState, types.SessionState{Mode: types.ModeEnded}, true))
	pub.Publish(pub.NewMessage(topicConfigHeartbeat, types.HeartbeatConfig{Interval: 20 * time.Millisecond}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	go New(log, nil).serviceLoop(ctx, b.NewConnection("heartbeat"), ready)
	<-ready

	waitFor(t, time.Second, func() bool { return strings.Contains(out.String(), "mode=ended") })
	if strings.Contains(out.String(), "session progress") {
		t.Fatalf("progress logged while ended")
	}
}

func TestHeartbeatFollowsClock(t *testing.T) {
	var out syncBuf
	log := slog.New(slog.NewTextHandler(&out, nil))
	clk := &timex.FakeClock{}

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(topicSessionState, types.SessionState{Mode: types.ModeIdle}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	go New(log, clk).serviceLoop(ctx, b.NewConnection("heartbeat"), ready)
	<-ready

	clk.Advance(defaultInterval - time.Second)
	time.Sleep(20 * time.Millisecond)
	if strings.Contains(out.String(), "heartbeat") {
		t.Fatalf("beat before interval:\n%s", out.String())
	}
	clk.Advance(time.Second)
	waitFor(t, time.Second, func() bool { return strings.Contains(out.String(), "msg=heartbeat") })
}

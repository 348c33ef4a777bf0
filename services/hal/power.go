package hal

import (
	"log/slog"
	"sync"

	"lenscode-go/types"
	"lenscode-go/x/logx"
)

// Power is the power-down path. On the device Sleep clears the lens,
// waits for the enclosure to open and resets; it never returns. On the
// host it clears the lens, records the request and returns.
type Power struct {
	lens *Lens
	hall *Hall
	log  *slog.Logger

	mu     sync.Mutex
	sleeps []types.SleepReason
}

func NewPower(lens *Lens, hall *Hall, log *slog.Logger) *Power {
	return &Power{lens: lens, hall: hall, log: logx.Or(log).With("svc", "power")}
}

func (p *Power) Sleep(reason types.SleepReason) {
	if p.lens != nil {
		p.lens.Apply(0)
	}
	p.mu.Lock()
	p.sleeps = append(p.sleeps, reason)
	p.mu.Unlock()
	p.log.Info("power down", "reason", string(reason))

	wake := func() bool { return true }
	if p.hall != nil {
		wake = func() bool { return !p.hall.Closed() }
	}
	halt(wake)
}

// Sleeps lists the reasons Sleep was called with.
func (p *Power) Sleeps() []types.SleepReason {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.SleepReason(nil), p.sleeps...)
}

// Package client drives a pair of lens glasses from a host: the same
// command writes the firmware accepts, sent over BLE or a serial link.
package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"lenscode-go/errcode"
	"lenscode-go/protocol"
	"lenscode-go/x/conv"
	"lenscode-go/x/logx"
)

// Sender writes one command to the device.
type Sender interface {
	Send(b []byte) error
	Close() error
}

// Options tune a Glasses client.
type Options struct {
	// Minimum gap between writes; the firmware commits each write before
	// the next arrives. Default 50 ms.
	Gap    time.Duration
	Logger *slog.Logger
}

const defaultGap = 50 * time.Millisecond

// Glasses is a connected device. Methods are safe for concurrent use;
// writes are serialised and paced.
type Glasses struct {
	mu     sync.Mutex
	s      Sender
	lim    *rate.Limiter
	log    *slog.Logger
	closed bool
}

func New(s Sender, o Options) *Glasses {
	if o.Gap <= 0 {
		o.Gap = defaultGap
	}
	return &Glasses{
		s:   s,
		lim: rate.NewLimiter(rate.Every(o.Gap), 1),
		log: logx.Or(o.Logger).With("svc", "client"),
	}
}

// Send writes raw command bytes.
func (g *Glasses) Send(ctx context.Context, b []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return &errcode.E{C: errcode.NotConnected, Op: "client.Send", Msg: "closed"}
	}
	if err := g.lim.Wait(ctx); err != nil {
		return errcode.Wrap(errcode.Timeout, "client.Send", err)
	}
	if err := g.s.Send(b); err != nil {
		return errcode.Wrap(errcode.Of(err), "client.Send", err)
	}
	g.log.Debug("sent", "bytes", conv.BytesHex(b))
	return nil
}

// Opacity sets a static level 0 (clear) .. 255 (dark) and stops the session.
func (g *Glasses) Opacity(ctx context.Context, level int) error {
	return g.Send(ctx, protocol.EncodeOpacity(level))
}

func (g *Glasses) Clear(ctx context.Context) error { return g.Opacity(ctx, 0) }
func (g *Glasses) Dark(ctx context.Context) error  { return g.Opacity(ctx, 255) }

// Strobe sets the frequency sweep and restarts the session.
func (g *Glasses) Strobe(ctx context.Context, startHz, endHz int) error {
	return g.Send(ctx, protocol.EncodeStrobe(startHz, endHz))
}

// Brightness scales the breathing envelope without restarting.
func (g *Glasses) Brightness(ctx context.Context, pct int) error {
	return g.Send(ctx, protocol.EncodeBrightness(pct))
}

// Breathing sets the four phase timings (0.1 s resolution, at most 25.5 s
// each) and restarts the session.
func (g *Glasses) Breathing(ctx context.Context, inhale, holdInEnd, exhale, holdOutEnd time.Duration) error {
	return g.Send(ctx, protocol.EncodeBreathing(inhale, holdInEnd, exhale, holdOutEnd))
}

// Duration sets the session length and restarts the session.
func (g *Glasses) Duration(ctx context.Context, minutes int) error {
	return g.Send(ctx, protocol.EncodeDuration(minutes))
}

// Hold pins the lens at duty 0..100 and stops the session.
func (g *Glasses) Hold(ctx context.Context, duty int) error {
	return g.Send(ctx, protocol.EncodeOverride(duty))
}

func (g *Glasses) Resume(ctx context.Context) error { return g.Send(ctx, protocol.EncodeResume()) }
func (g *Glasses) Sleep(ctx context.Context) error  { return g.Send(ctx, protocol.EncodeSleep()) }

// StartSession writes a whole recipe. Duration goes last and restarts the
// session with everything else in place.
func (g *Glasses) StartSession(ctx context.Context, p protocol.Preset) error {
	for _, b := range p.Commands() {
		if err := g.Send(ctx, b); err != nil {
			return err
		}
	}
	g.log.Info("session started", "preset", p.Name, "minutes", p.DurationMin)
	return nil
}

// Close releases the link. It is safe to call more than once.
func (g *Glasses) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.s.Close()
}

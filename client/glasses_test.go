package client

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"lenscode-go/errcode"
	"lenscode-go/protocol"
)

type fakeSender struct {
	sent   [][]byte
	err    error
	closed int
}

func (f *fakeSender) Send(b []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

func (f *fakeSender) Close() error { f.closed++; return nil }

func newGlasses() (*Glasses, *fakeSender) {
	s := &fakeSender{}
	return New(s, Options{Gap: time.Microsecond}), s
}

func TestCommandsEncode(t *testing.T) {
	g, s := newGlasses()
	ctx := context.Background()
	steps := []struct {
		name string
		call func() error
		want []byte
	}{
		{"opacity", func() error { return g.Opacity(ctx, 300) }, []byte{0xFF}},
		{"clear", func() error { return g.Clear(ctx) }, []byte{0x00}},
		{"strobe", func() error { return g.Strobe(ctx, 12, 80) }, []byte{0xA1, 12, 50}},
		{"brightness", func() error { return g.Brightness(ctx, 55) }, []byte{0xA2, 55}},
		{"breathing", func() error {
			return g.Breathing(ctx, 4*time.Second, 0, 4500*time.Millisecond, 30*time.Second)
		}, []byte{0xA3, 40, 0, 45, 255}},
		{"duration", func() error { return g.Duration(ctx, 0) }, []byte{0xA4, 1}},
		{"hold", func() error { return g.Hold(ctx, 40) }, []byte{0xA5, 40}},
		{"resume", func() error { return g.Resume(ctx) }, []byte{0xA6, 0x00}},
		{"sleep", func() error { return g.Sleep(ctx) }, []byte{0xA7, 0x00}},
	}
	for i, st := range steps {
		if err := st.call(); err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if !bytes.Equal(s.sent[i], st.want) {
			t.Fatalf("%s: sent % X want % X", st.name, s.sent[i], st.want)
		}
	}
}

func TestStartSessionOrder(t *testing.T) {
	g, s := newGlasses()
	p, err := protocol.LookupPreset("focus")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.StartSession(context.Background(), p.WithDuration(20)); err != nil {
		t.Fatal(err)
	}
	if len(s.sent) != 4 {
		t.Fatalf("sent %d writes", len(s.sent))
	}
	ops := []byte{s.sent[0][0], s.sent[1][0], s.sent[2][0], s.sent[3][0]}
	if !bytes.Equal(ops, []byte{0xA2, 0xA3, 0xA1, 0xA4}) {
		t.Fatalf("opcode order % X", ops)
	}
	if s.sent[3][1] != 20 {
		t.Fatalf("duration %d", s.sent[3][1])
	}
}

func TestSendErrorsKeepCode(t *testing.T) {
	g, s := newGlasses()
	s.err = errcode.NotConnected
	err := g.Hold(context.Background(), 10)
	if errcode.Of(err) != errcode.NotConnected {
		t.Fatalf("err=%v", err)
	}
	if !errors.Is(err, errcode.NotConnected) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	g, s := newGlasses()
	g.Close()
	g.Close()
	if s.closed != 1 {
		t.Fatalf("closed %d times", s.closed)
	}
	if err := g.Clear(context.Background()); errcode.Of(err) != errcode.NotConnected {
		t.Fatalf("send after close: %v", err)
	}
}

func TestSendHonoursContext(t *testing.T) {
	s := &fakeSender{}
	g := New(s, Options{Gap: time.Hour})
	ctx := context.Background()
	if err := g.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := g.Dark(ctx); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err=%v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("paced write went through")
	}
}

func TestMatches(t *testing.T) {
	if !matches("Smart_Glasses") || !matches("Smart_Glasses-2") || matches("Other") {
		t.Fatalf("name filter")
	}
}

//go:build !rp2040 && !rp2350

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lenscode-go/services/config"
	"lenscode-go/types"
	"lenscode-go/x/logx"
	"lenscode-go/x/timex"
)

func do(t *testing.T, s *sim, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestEnclosureClosedPowersDown(t *testing.T) {
	s, err := newSim(config.Default(), &timex.FakeClock{}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(t, s, http.MethodPost, "/command", "A5 50"); rec.Code != http.StatusOK {
		t.Fatalf("command status %d", rec.Code)
	}
	if s.pwm.Last() == 0 {
		t.Fatalf("lens not driven")
	}

	if rec := do(t, s, http.MethodPost, "/sim/enclosure/closed", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("enclosure status %d", rec.Code)
	}
	for i := 0; i < 4; i++ {
		if s.arb.Sample() {
			t.Fatalf("slept after %d samples", i+1)
		}
	}
	if !s.arb.Sample() {
		t.Fatalf("no sleep after threshold")
	}
	select {
	case <-s.asleep:
	default:
		t.Fatalf("power-down path not run")
	}
	if s.pwm.Last() != 0 {
		t.Fatalf("lens left at %d", s.pwm.Last())
	}
	if got := s.power.Sleeps(); len(got) != 1 || got[0] != types.SleepEnclosureClosed {
		t.Fatalf("sleeps %v", got)
	}
}

func TestSleepCommandPowersDown(t *testing.T) {
	s, err := newSim(config.Default(), &timex.FakeClock{}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	do(t, s, http.MethodPost, "/command", "A7 00")
	if !s.arb.Sample() {
		t.Fatalf("ended session did not sleep")
	}
	if got := s.power.Sleeps(); len(got) != 1 || got[0] != types.SleepSessionEnded {
		t.Fatalf("sleeps %v", got)
	}
}

func TestEnclosureBadState(t *testing.T) {
	s, err := newSim(config.Default(), &timex.FakeClock{}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(t, s, http.MethodPost, "/sim/enclosure/ajar", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestHardwareReport(t *testing.T) {
	s, err := newSim(config.Default(), &timex.FakeClock{}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	do(t, s, http.MethodPost, "/command", "A5 64")
	do(t, s, http.MethodPost, "/sim/enclosure/closed", "")

	rec := do(t, s, http.MethodGet, "/sim/hw", "")
	var hw hwResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &hw); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if hw.Lens.Duty != 100 || hw.Lens.Raw != 1024 || !hw.Hall.Closed {
		t.Fatalf("hw %+v", hw)
	}
}

package protocol

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Preset is a named session recipe.
type Preset struct {
	Name        string
	StartHz     int
	EndHz       int
	Inhale      time.Duration
	HoldInEnd   time.Duration
	Exhale      time.Duration
	HoldOutEnd  time.Duration
	Brightness  int
	DurationMin int
}

var presets = map[string]Preset{
	"relax": {
		Name: "relax", StartHz: 10, EndHz: 4,
		Inhale: 5 * time.Second, HoldInEnd: 5 * time.Second, Exhale: 5 * time.Second, HoldOutEnd: 5 * time.Second,
		Brightness: 100, DurationMin: 10,
	},
	"focus": {
		Name: "focus", StartHz: 15, EndHz: 10,
		Inhale: 3 * time.Second, HoldInEnd: 2 * time.Second, Exhale: 3 * time.Second, HoldOutEnd: 2 * time.Second,
		Brightness: 100, DurationMin: 10,
	},
	"meditate": {
		Name: "meditate", StartHz: 12, EndHz: 8,
		Inhale: 4 * time.Second, HoldInEnd: 4 * time.Second, Exhale: 4 * time.Second, HoldOutEnd: 4 * time.Second,
		Brightness: 100, DurationMin: 10,
	},
	"sleep": {
		Name: "sleep", StartHz: 6, EndHz: 2,
		Inhale: 6 * time.Second, HoldInEnd: 6 * time.Second, Exhale: 6 * time.Second, HoldOutEnd: 6 * time.Second,
		Brightness: 100, DurationMin: 15,
	},
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (options: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WithDuration returns a copy running for minutes (ignored when <= 0).
func (p Preset) WithDuration(minutes int) Preset {
	if minutes > 0 {
		p.DurationMin = minutes
	}
	return p
}

// Commands returns the writes that start the session. Duration goes last:
// it restarts the session once everything else is in place.
func (p Preset) Commands() [][]byte {
	return [][]byte{
		EncodeBrightness(p.Brightness),
		EncodeBreathing(p.Inhale, p.HoldInEnd, p.Exhale, p.HoldOutEnd),
		EncodeStrobe(p.StartHz, p.EndHz),
		EncodeDuration(p.DurationMin),
	}
}

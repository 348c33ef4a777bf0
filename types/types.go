package types

// ---- Session telemetry (retained) ----

// SessionState is published on session/state whenever a command commits
// or the mode changes.
type SessionState struct {
	Mode         Mode          `json:"mode"`
	Config       SessionConfig `json:"config"`
	OverrideDuty uint8         `json:"override_duty,omitempty"`
	Epoch        uint32        `json:"epoch"`
	Cause        string        `json:"cause"` // command name, "boot" or "complete"
	TS           int64         `json:"ts_ms"`
}

// SessionProgress is published on session/progress while running.
type SessionProgress struct {
	Progress   float32     `json:"progress"` // 0..1
	FreqHz     float32     `json:"freq_hz"`
	HoldInMs   uint32      `json:"hold_in_ms"`
	HoldOutMs  uint32      `json:"hold_out_ms"`
	Phase      BreathPhase `json:"phase"`
	Duty       uint8       `json:"duty"`
	RemainingS uint32      `json:"remaining_s"`
	TS         int64       `json:"ts_ms"`
}

// ---- Generic replies ----

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

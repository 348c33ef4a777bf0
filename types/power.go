package types

// ------------------------
// Sleep
// ------------------------

type SleepReason string

const (
	SleepSessionEnded    SleepReason = "session_ended"
	SleepEnclosureClosed SleepReason = "enclosure_closed"
	SleepRequested       SleepReason = "requested"
)

// SleepEvent is published retained on power/sleep when the device decides
// to power down.
type SleepEvent struct {
	Reason SleepReason `json:"reason"`
	TS     int64       `json:"ts_ms"`
}

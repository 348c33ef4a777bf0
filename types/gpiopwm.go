package types

// ------------------------
// Lens actuator (PWM)
// ------------------------

type LensInfo struct {
	Pin        int    `json:"pin"`
	FreqHz     uint64 `json:"freq_hz"`
	Top        uint16 `json:"top"`
	MinVisible uint16 `json:"min_visible"`
}

// LensValue carries both the logical duty and the raw level written.
type LensValue struct {
	Duty uint8  `json:"duty"` // 0..100
	Raw  uint16 `json:"raw"`  // 0..Top
}

// ------------------------
// Enclosure (hall) sensor
// ------------------------

type HallInfo struct {
	Pin        int  `json:"pin"`
	ActiveHigh bool `json:"active_high"`
}

type HallValue struct {
	Closed bool `json:"closed"`
}

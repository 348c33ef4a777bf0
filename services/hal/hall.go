package hal

import (
	"fmt"

	"lenscode-go/types"
)

// Hall reads the enclosure sensor. The input is pulled up; ActiveHigh says
// which level means the case lid is closed.
type Hall struct {
	pin        GPIOPin
	activeHigh bool
}

func NewHall(pin GPIOPin, cfg types.HallConfig) (*Hall, error) {
	if err := pin.ConfigureInput(PullUp); err != nil {
		return nil, fmt.Errorf("hal: configure hall pin %d: %w", pin.Number(), err)
	}
	return &Hall{pin: pin, activeHigh: cfg.ActiveHigh}, nil
}

func (h *Hall) Closed() bool { return h.pin.Get() == h.activeHigh }

func (h *Hall) Value() types.HallValue { return types.HallValue{Closed: h.Closed()} }

func (h *Hall) Info() types.HallInfo {
	return types.HallInfo{Pin: h.pin.Number(), ActiveHigh: h.activeHigh}
}

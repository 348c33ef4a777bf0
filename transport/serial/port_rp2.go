//go:build rp2040 || rp2350

package serial

import (
	"machine"

	"lenscode-go/errcode"
	"lenscode-go/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART configures the hardware UART named in cfg ("uart0" or "uart1").
func OpenUART(cfg types.UARTConfig) (*uartx.UART, error) {
	var hw *uartx.UART
	switch cfg.ID {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.UnknownPort
	}
	// Zero values fall back to uartx defaults.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, errcode.Wrap(errcode.Error, "serial.OpenUART", err)
	}
	return hw, nil
}

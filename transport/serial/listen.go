package serial

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"lenscode-go/errcode"
	"lenscode-go/x/conv"
	"lenscode-go/x/logx"
)

// Port is the receive side of a UART.
type Port interface {
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Handler receives one command payload.
type Handler func(b []byte) errcode.Code

// readSlice bounds each blocking read so cancellation is noticed.
const readSlice = 250 * time.Millisecond

// Listen reads frames from port and hands each to h until ctx is cancelled
// or the port reports EOF.
func Listen(ctx context.Context, port Port, h Handler, log *slog.Logger) error {
	log = logx.Or(log).With("svc", "serial")
	var dec Decoder
	buf := make([]byte, 64)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rctx, cancel := context.WithTimeout(ctx, readSlice)
		n, err := port.RecvSomeContext(rctx, buf)
		cancel()

		if n > 0 {
			dropped := dec.Dropped
			dec.Feed(buf[:n], func(frame []byte) {
				if rc := h(frame); rc != errcode.OK {
					log.Debug("frame rejected", "bytes", conv.BytesHex(frame), "code", string(rc))
				}
			})
			if dec.Dropped != dropped {
				log.Warn("oversize frame skipped", "total", dec.Dropped)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return errcode.Wrap(errcode.Error, "serial.Listen", err)
		}
	}
}

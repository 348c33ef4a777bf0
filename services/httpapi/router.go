// Package httpapi exposes the session over HTTP for the host simulator:
// health, a state snapshot and the same command writes the GATT
// characteristic accepts.
package httpapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"lenscode-go/errcode"
	"lenscode-go/services/session"
	"lenscode-go/x/logx"
)

// Controller is the part of the session engine the API drives.
type Controller interface {
	HandleCommand(b []byte) errcode.Code
	Snapshot() session.Snapshot
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(ctl Controller, logger *slog.Logger) *chi.Mux {
	logger = logx.Or(logger).With("svc", "http")
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := &handler{ctl: ctl, log: logger}

	r.Get("/health", h.Health)
	r.Get("/session", h.Session)
	r.Post("/command", h.Command)
	r.Get("/presets", h.Presets)
	r.Post("/preset/{name}", h.Preset)

	return r
}

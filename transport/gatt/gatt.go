// Package gatt exposes the lens command characteristic over BLE. Every
// write to the characteristic is one command.
package gatt

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"lenscode-go/errcode"
	"lenscode-go/x/conv"
	"lenscode-go/x/logx"

	"tinygo.org/x/bluetooth"
)

const (
	DefaultName        = "Smart_Glasses"
	ServiceUUID16      = 0x00FF
	CommandCharUUID16  = 0xFF01
	maxCommandWriteLen = 100 // attribute length on the device
)

// Handler receives one command write.
type Handler func(b []byte) errcode.Code

type advertiser interface {
	Start() error
}

type Server struct {
	adapter *bluetooth.Adapter
	adv     advertiser
	name    string
	h       Handler
	log     *slog.Logger

	char bluetooth.Characteristic

	connected atomic.Bool
	writes    atomic.Uint32
}

// New builds a server on adapter (bluetooth.DefaultAdapter on the device).
func New(adapter *bluetooth.Adapter, name string, h Handler, log *slog.Logger) *Server {
	if name == "" {
		name = DefaultName
	}
	return &Server{
		adapter: adapter,
		name:    name,
		h:       h,
		log:     logx.Or(log).With("svc", "gatt"),
	}
}

// Start enables the adapter, registers the service and begins advertising.
func (s *Server) Start() error {
	s.adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		s.onConnect(connected)
	})
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("gatt: enable adapter: %w", err)
	}

	svcUUID := bluetooth.New16BitUUID(ServiceUUID16)
	err := s.adapter.AddService(&bluetooth.Service{
		UUID: svcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{{
			Handle: &s.char,
			UUID:   bluetooth.New16BitUUID(CommandCharUUID16),
			Value:  []byte{0},
			Flags: bluetooth.CharacteristicReadPermission |
				bluetooth.CharacteristicWritePermission |
				bluetooth.CharacteristicWriteWithoutResponsePermission,
			WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
				s.onWrite(value)
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("gatt: add service: %w", err)
	}

	adv := s.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.name,
		ServiceUUIDs: []bluetooth.UUID{svcUUID},
	}); err != nil {
		return fmt.Errorf("gatt: configure advertisement: %w", err)
	}
	s.adv = adv
	if err := adv.Start(); err != nil {
		return fmt.Errorf("gatt: start advertising: %w", err)
	}
	s.log.Info("advertising", "name", s.name)
	return nil
}

// onWrite copies the value out of the stack's buffer before dispatching.
func (s *Server) onWrite(value []byte) {
	if len(value) > maxCommandWriteLen {
		// Only the leading bytes matter to the decoder.
		s.log.Debug("write truncated", "len", len(value))
		value = value[:maxCommandWriteLen]
	}
	b := append([]byte(nil), value...)
	s.writes.Add(1)
	if rc := s.h(b); rc != errcode.OK {
		s.log.Debug("write rejected", "bytes", conv.BytesHex(b), "code", string(rc))
	}
}

// onConnect restarts advertising once the central goes away.
func (s *Server) onConnect(connected bool) {
	s.connected.Store(connected)
	if connected {
		s.log.Info("central connected")
		return
	}
	s.log.Info("central disconnected")
	if s.adv == nil {
		return
	}
	if err := s.adv.Start(); err != nil {
		s.log.Warn("advertising restart failed", "err", err)
	}
}

func (s *Server) Connected() bool { return s.connected.Load() }

// Writes counts the command writes dispatched so far.
func (s *Server) Writes() uint32 { return s.writes.Load() }

package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lenscode-go/errcode"
	"lenscode-go/protocol"
	"lenscode-go/types"
	"lenscode-go/x/conv"
	"lenscode-go/x/mathx"
)

// Commands are short; anything longer than a frame is rejected outright.
const maxBody = 256

type handler struct {
	ctl Controller
	log *slog.Logger
}

type sessionResponse struct {
	Mode         types.Mode          `json:"mode"`
	Config       types.SessionConfig `json:"config"`
	OverrideDuty uint8               `json:"override_duty"`
	Epoch        uint32              `json:"epoch"`
}

type commandResponse struct {
	OK       bool     `json:"ok"`
	Code     string   `json:"code"`
	Mode     string   `json:"mode"`
	Commands []string `json:"commands,omitempty"`
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) Session(w http.ResponseWriter, r *http.Request) {
	snap := h.ctl.Snapshot()
	writeJSON(w, http.StatusOK, sessionResponse{
		Mode:         snap.Runtime.Mode,
		Config:       snap.Config,
		OverrideDuty: snap.Runtime.OverrideDuty,
		Epoch:        snap.Runtime.Epoch,
	})
}

// Command accepts one write, either raw bytes (application/octet-stream)
// or a hex string such as "A1 0A 04".
func (h *handler) Command(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(body) > maxBody {
		writeError(w, http.StatusRequestEntityTooLarge, "command too long")
		return
	}
	b := body
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream") {
		var ok bool
		b, ok = conv.ParseHexBytes(strings.TrimSpace(string(body)))
		if !ok {
			writeError(w, http.StatusBadRequest, "body is not hex")
			return
		}
	}
	rc := h.ctl.HandleCommand(b)
	status := http.StatusOK
	if rc != errcode.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, commandResponse{
		OK:   rc == errcode.OK,
		Code: string(rc),
		Mode: h.ctl.Snapshot().Runtime.Mode.String(),
	})
}

func (h *handler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"presets": protocol.PresetNames()})
}

// Preset applies a named recipe; ?minutes=N overrides its duration.
func (h *handler) Preset(w http.ResponseWriter, r *http.Request) {
	p, err := protocol.LookupPreset(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if s := r.URL.Query().Get("minutes"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !mathx.Between(n, types.MinDuration, types.MaxDuration) {
			writeError(w, http.StatusBadRequest, "minutes must be 1..60")
			return
		}
		p = p.WithDuration(n)
	}

	resp := commandResponse{OK: true, Code: string(errcode.OK)}
	for _, b := range p.Commands() {
		resp.Commands = append(resp.Commands, conv.BytesHex(b))
		if rc := h.ctl.HandleCommand(b); rc != errcode.OK {
			resp.OK, resp.Code = false, string(rc)
			break
		}
	}
	resp.Mode = h.ctl.Snapshot().Runtime.Mode.String()
	h.log.Info("preset applied", "name", p.Name, "minutes", p.DurationMin, "ok", resp.OK)

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorReply{OK: false, Error: msg})
}

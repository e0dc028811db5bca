package api

import (
	"context"
	"log/slog"
	"net/http"

	"organtour/pkg/audio"
	"organtour/pkg/locomotion"
)

// PreferenceHandler reads and changes the persisted comfort options. Changes run on
// the frame loop so they never interleave with a frame.
type PreferenceHandler struct {
	loop   FrameLoop
	coord  *locomotion.Coordinator
	turn   *locomotion.TurnSelector
	volume *audio.VolumeControl
}

// NewPreferenceHandler creates a handler. volume may be nil when audio is disabled.
func NewPreferenceHandler(loop FrameLoop, coord *locomotion.Coordinator, turn *locomotion.TurnSelector, volume *audio.VolumeControl) *PreferenceHandler {
	return &PreferenceHandler{loop: loop, coord: coord, turn: turn, volume: volume}
}

// PreferenceResponse reports a preference after a read or a change. Persisted is false
// when the change was applied but could not be stored.
type PreferenceResponse struct {
	Name      string `json:"name"`
	Value     int    `json:"value"`
	Label     string `json:"label,omitempty"`
	Persisted bool   `json:"persisted"`
	Error     string `json:"error,omitempty"`
}

// LocomotionRequest selects a mode by name ("teleport", "smooth") or by value.
type LocomotionRequest struct {
	Mode  string `json:"mode,omitempty"`
	Value *int   `json:"value,omitempty"`
}

// HandleGetLocomotion handles GET /api/locomotion
func (h *PreferenceHandler) HandleGetLocomotion(w http.ResponseWriter, r *http.Request) {
	st := h.loop.Snapshot().Locomotion
	writeJSON(w, http.StatusOK, PreferenceResponse{Name: "locomotion", Value: st.Value, Label: st.Mode, Persisted: true})
}

// HandleSetLocomotion handles POST /api/locomotion
func (h *PreferenceHandler) HandleSetLocomotion(w http.ResponseWriter, r *http.Request) {
	var req LocomotionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var value int
	switch {
	case req.Value != nil:
		value = *req.Value
	case req.Mode != "":
		m, err := locomotion.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		value = int(m)
	default:
		writeError(w, http.StatusBadRequest, "mode or value required")
		return
	}

	var persistErr error
	var applied locomotion.Mode
	err := h.loop.Do(r.Context(), func() error {
		persistErr = h.coord.SetModeValue(persistCtx(r), value)
		applied = h.coord.Mode()
		return nil
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}

	slog.Info("API: locomotion mode selected", "mode", applied)
	writeJSON(w, http.StatusOK, preferenceResult("locomotion", int(applied), applied.String(), persistErr))
}

// TurnRequest selects a turn style: 0 snap, 1 continuous.
type TurnRequest struct {
	Value int `json:"value"`
}

// HandleGetTurn handles GET /api/turn
func (h *PreferenceHandler) HandleGetTurn(w http.ResponseWriter, r *http.Request) {
	label := h.loop.Snapshot().Turn
	writeJSON(w, http.StatusOK, PreferenceResponse{Name: "turn", Value: turnValue(label), Label: label, Persisted: true})
}

func turnValue(label string) int {
	if label == locomotion.ContinuousTurn.String() {
		return int(locomotion.ContinuousTurn)
	}
	return int(locomotion.SnapTurn)
}

// HandleSetTurn handles POST /api/turn
func (h *PreferenceHandler) HandleSetTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var persistErr error
	var applied locomotion.TurnStyle
	err := h.loop.Do(r.Context(), func() error {
		persistErr = h.turn.SetStyleValue(persistCtx(r), req.Value)
		applied = h.turn.Style()
		return nil
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preferenceResult("turn", int(applied), applied.String(), persistErr))
}

// VolumeRequest sets the master volume, 0..100.
type VolumeRequest struct {
	Volume int `json:"volume"`
}

// HandleGetVolume handles GET /api/volume
func (h *PreferenceHandler) HandleGetVolume(w http.ResponseWriter, r *http.Request) {
	if h.volume == nil {
		writeError(w, http.StatusNotFound, "audio disabled")
		return
	}
	writeJSON(w, http.StatusOK, PreferenceResponse{Name: "volume", Value: h.loop.Snapshot().Volume, Persisted: true})
}

// HandleSetVolume handles POST /api/volume
func (h *PreferenceHandler) HandleSetVolume(w http.ResponseWriter, r *http.Request) {
	if h.volume == nil {
		writeError(w, http.StatusNotFound, "audio disabled")
		return
	}
	var req VolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var persistErr error
	var applied int
	err := h.loop.Do(r.Context(), func() error {
		persistErr = h.volume.Set(persistCtx(r), req.Volume)
		applied = h.volume.Level()
		return nil
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preferenceResult("volume", applied, "", persistErr))
}

// persistCtx is the context for writes made inside a queued closure. The closure runs
// even if the client has gone away, and the write must not be cut short then.
func persistCtx(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func preferenceResult(name string, value int, label string, persistErr error) PreferenceResponse {
	resp := PreferenceResponse{Name: name, Value: value, Label: label, Persisted: persistErr == nil}
	if persistErr != nil {
		resp.Error = persistErr.Error()
	}
	return resp
}

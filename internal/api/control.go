package api

import (
	"log/slog"
	"net/http"

	"organtour/pkg/display"
	"organtour/pkg/geom"
	"organtour/pkg/input"
	"organtour/pkg/viewpoint"
)

// ControlHandler turns HTTP calls into exhibit input: confirm presses, panel close and
// head pose updates.
type ControlHandler struct {
	loop    FrameLoop
	trigger *input.Trigger
	disp    *display.Display
	tracked *viewpoint.Tracked
}

// NewControlHandler creates a handler. tracked is nil when poses come from another
// provider; pose updates are then refused.
func NewControlHandler(loop FrameLoop, trigger *input.Trigger, disp *display.Display, tracked *viewpoint.Tracked) *ControlHandler {
	return &ControlHandler{loop: loop, trigger: trigger, disp: disp, tracked: tracked}
}

// HandleConfirm handles POST /api/confirm
func (h *ControlHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.trigger.Press()
	slog.Debug("API: confirm pressed", "presses", h.trigger.Presses())
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok", "presses": h.trigger.Presses()})
}

// HandleClose handles POST /api/display/close
func (h *ControlHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	var owner string
	err := h.loop.Do(r.Context(), func() error {
		if o := h.disp.CurrentOwner(); o != nil {
			owner = o.Name()
		}
		h.disp.Hide()
		return nil
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "closed": owner})
}

// ViewpointResponse is the pose seen by the last frame.
type ViewpointResponse struct {
	Tracking viewpoint.State `json:"tracking"`
	HasPose  bool            `json:"has_pose"`
	Pose     geom.Pose       `json:"pose"`
}

// HandleGetViewpoint handles GET /api/viewpoint
func (h *ControlHandler) HandleGetViewpoint(w http.ResponseWriter, r *http.Request) {
	snap := h.loop.Snapshot()
	writeJSON(w, http.StatusOK, ViewpointResponse{Tracking: snap.Tracking, HasPose: snap.HasPose, Pose: snap.Pose})
}

// HandleSetViewpoint handles POST /api/viewpoint
func (h *ControlHandler) HandleSetViewpoint(w http.ResponseWriter, r *http.Request) {
	if h.tracked == nil {
		writeError(w, http.StatusConflict, "viewpoint is not externally tracked")
		return
	}

	var pose geom.Pose
	if !decodeBody(w, r, &pose) {
		return
	}
	h.tracked.Set(pose)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok", "tracking": h.tracked.State()})
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/paulmach/orb"

	"organtour/pkg/core"
	"organtour/pkg/exhibit"
	"organtour/pkg/locomotion"
	"organtour/pkg/store"
	"organtour/pkg/visits"
)

// FrameLoop is the part of the scheduler handlers use: reads go to the published
// snapshot, writes are queued onto the loop.
type FrameLoop interface {
	Snapshot() core.Snapshot
	Do(ctx context.Context, fn func() error) error
}

// ExhibitHandler serves the exhibit state, layout and view statistics.
type ExhibitHandler struct {
	loop     FrameLoop
	ex       *exhibit.Exhibit
	views    store.VisitStore
	recorder *visits.Recorder
	route    orb.LineString
}

// NewExhibitHandler creates a handler. views and recorder may be nil.
func NewExhibitHandler(loop FrameLoop, ex *exhibit.Exhibit, views store.VisitStore, rec *visits.Recorder) *ExhibitHandler {
	return &ExhibitHandler{loop: loop, ex: ex, views: views, recorder: rec}
}

// SetRoute adds the scripted walking route to the layout.
func (h *ExhibitHandler) SetRoute(route orb.LineString) { h.route = route }

// ExhibitResponse is the full exhibit state.
type ExhibitResponse struct {
	core.Snapshot
	Switches []locomotion.SwitchState `json:"switches"`
}

// HandleExhibit handles GET /api/exhibit
func (h *ExhibitHandler) HandleExhibit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ExhibitResponse{
		Snapshot: h.loop.Snapshot(),
		Switches: h.ex.SwitchStates(),
	})
}

// HandleLayout handles GET /api/exhibit/layout
func (h *ExhibitHandler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	fc := exhibit.Layout(h.loop.Snapshot().Hotspots, h.route)
	data, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("API: failed to encode layout", "error", err)
		writeError(w, http.StatusInternalServerError, "layout unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("API: failed to write layout", "error", err)
	}
}

// StatsResponse reports view history and process diagnostics.
type StatsResponse struct {
	SessionID  string                         `json:"session_id,omitempty"`
	ViewCounts map[string]int                 `json:"view_counts"`
	Recent     []store.View                   `json:"recent"`
	Session    map[string]visits.HotspotStats `json:"session"`
	Dropped    int64                          `json:"dropped_events"`
	Frame      uint64                         `json:"frame"`
	MemoryMB   uint64                         `json:"memory_mb"`
	Goroutines int                            `json:"goroutines"`
}

// HandleStats handles GET /api/exhibit/stats
func (h *ExhibitHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		ViewCounts: map[string]int{},
		Recent:     []store.View{},
		Session:    map[string]visits.HotspotStats{},
		Frame:      h.loop.Snapshot().Frame,
		Goroutines: runtime.NumGoroutine(),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	resp.MemoryMB = m.Alloc / 1024 / 1024

	if h.views != nil {
		counts, err := h.views.ViewCounts(r.Context())
		if err != nil {
			slog.Error("API: failed to read view counts", "error", err)
			writeError(w, http.StatusInternalServerError, "view history unavailable")
			return
		}
		resp.ViewCounts = counts

		recent, err := h.views.RecentViews(r.Context(), 20)
		if err != nil {
			slog.Error("API: failed to read recent views", "error", err)
			writeError(w, http.StatusInternalServerError, "view history unavailable")
			return
		}
		resp.Recent = recent
	}
	if h.recorder != nil {
		resp.SessionID = h.recorder.SessionID()
		resp.Session = h.recorder.Stats()
		resp.Dropped = h.recorder.Dropped()
	}

	writeJSON(w, http.StatusOK, resp)
}

// HotspotRequest toggles a hotspot.
type HotspotRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleHotspot handles POST /api/hotspots/{name}
func (h *ExhibitHandler) HandleHotspot(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	hs := h.ex.Hotspot(name)
	if hs == nil {
		writeError(w, http.StatusNotFound, "unknown hotspot")
		return
	}

	var req HotspotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.loop.Do(r.Context(), func() error {
		if req.Enabled {
			hs.Enable()
		} else {
			hs.Disable()
		}
		return nil
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}

	slog.Info("API: hotspot toggled", "hotspot", name, "enabled", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "hotspot": name, "enabled": req.Enabled})
}

// writeLoopError maps a failed Do to a response.
func writeLoopError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "exhibit is shutting down")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "frame loop did not respond")
	default:
		slog.Error("API: command failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

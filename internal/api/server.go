// Package api exposes the exhibit over HTTP: read-only views of the frame snapshot,
// commands that are executed on the frame loop, and a websocket event feed.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"organtour/pkg/version"
)

// NewServer creates and configures the HTTP server.
// shutdown is called, after the response was written, by POST /api/shutdown.
func NewServer(addr string, ex *ExhibitHandler, ctl *ControlHandler, prefs *PreferenceHandler, hub *EventHub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2. Exhibit views
	mux.HandleFunc("GET /api/exhibit", ex.HandleExhibit)
	mux.HandleFunc("GET /api/exhibit/layout", ex.HandleLayout)
	mux.HandleFunc("GET /api/exhibit/stats", ex.HandleStats)
	mux.HandleFunc("POST /api/hotspots/{name}", ex.HandleHotspot)

	// 3. Commands
	mux.HandleFunc("POST /api/confirm", ctl.HandleConfirm)
	mux.HandleFunc("POST /api/display/close", ctl.HandleClose)
	mux.HandleFunc("GET /api/viewpoint", ctl.HandleGetViewpoint)
	mux.HandleFunc("POST /api/viewpoint", ctl.HandleSetViewpoint)

	// 4. Preferences
	mux.HandleFunc("GET /api/locomotion", prefs.HandleGetLocomotion)
	mux.HandleFunc("POST /api/locomotion", prefs.HandleSetLocomotion)
	mux.HandleFunc("GET /api/turn", prefs.HandleGetTurn)
	mux.HandleFunc("POST /api/turn", prefs.HandleSetTurn)
	mux.HandleFunc("GET /api/volume", prefs.HandleGetVolume)
	mux.HandleFunc("POST /api/volume", prefs.HandleSetVolume)

	// 5. Live events
	if hub != nil {
		mux.Handle("GET /api/events", hub)
	}

	// 6. Shutdown
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("API: graceful shutdown requested")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("API: failed to write shutdown response", "error", err)
		}
		// Let the response flush first.
		go func() {
			time.Sleep(100 * time.Millisecond)
			if shutdown != nil {
				shutdown()
			}
		}()
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("API: failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"build":   version.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("API: failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}

// decodeBody reads a JSON request body into v. It answers 400 and returns false when
// the body is not valid JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

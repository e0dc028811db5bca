// Package hotspot implements the proximity state machine of a single exhibit point of
// interest: a prompt that appears when the viewpoint comes near, and a confirm action
// that claims the shared display.
package hotspot

import (
	"fmt"
	"log/slog"

	"organtour/pkg/display"
	"organtour/pkg/event"
	"organtour/pkg/geom"
	"organtour/pkg/logging"
)

// Defaults used when a hotspot is configured without thresholds.
const (
	DefaultPromptDistance   = 1.25
	DefaultAutoHideDistance = 2.5
	DefaultPromptText       = "Press the A button to see the information"
)

// DefaultPromptOffset lifts the prompt slightly above the reference point.
var DefaultPromptOffset = geom.V(0, 0.18, 0)

// State is the local interaction state.
type State int

const (
	// Idle: prompt hidden, not the display owner.
	Idle State = iota
	// Prompted: prompt visible, not the display owner.
	Prompted
	// Active: owns the display.
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prompted:
		return "prompted"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Panel is the part of the shared display a hotspot talks to.
type Panel interface {
	Show(content display.Content, requester display.Owner) error
	Hide()
	IsVisible() bool
	CurrentOwner() display.Owner
}

// Config is the static description of a hotspot.
type Config struct {
	Name    string
	Content display.Content
	// Position is the reference point distances are measured from.
	Position         geom.Vec3
	PromptOffset     geom.Vec3
	PromptDistance   float64
	AutoHideDistance float64
	PromptText       string
}

// PromptPlacement is where the floating prompt sits and the direction it faces
// (away from the viewpoint, so its text reads correctly).
type PromptPlacement struct {
	Position geom.Vec3 `json:"position"`
	Facing   geom.Vec3 `json:"facing"`
}

// Hotspot drives one point of interest. All methods run on the frame loop.
type Hotspot struct {
	cfg   Config
	panel Panel
	bus   *event.Bus

	exclusivePrompts bool
	enabled          bool

	state         State
	promptVisible bool

	viewpoint    geom.Vec3
	hasViewpoint bool
	distance     float64
	prompt       PromptPlacement

	warnedNoPanel bool
}

// New creates an idle hotspot. Thresholds are normalized so that
// AutoHideDistance >= PromptDistance > 0. panel and bus may be nil.
func New(cfg Config, panel Panel, bus *event.Bus) *Hotspot {
	if cfg.PromptDistance <= 0 {
		cfg.PromptDistance = DefaultPromptDistance
	}
	if cfg.AutoHideDistance <= 0 {
		cfg.AutoHideDistance = DefaultAutoHideDistance
	}
	if cfg.AutoHideDistance < cfg.PromptDistance {
		slog.Warn("Hotspot: auto-hide distance below prompt distance, clamping",
			"hotspot", cfg.Name, "prompt", cfg.PromptDistance, "auto_hide", cfg.AutoHideDistance)
		cfg.AutoHideDistance = cfg.PromptDistance
	}
	if cfg.PromptText == "" {
		cfg.PromptText = DefaultPromptText
	}

	h := &Hotspot{cfg: cfg, panel: panel, bus: bus, enabled: true}
	h.prompt.Position = cfg.Position.Add(cfg.PromptOffset)
	return h
}

// SetExclusivePrompts hides this hotspot's prompt whenever the shared display is
// visible, whoever owns it.
func (h *Hotspot) SetExclusivePrompts(on bool) { h.exclusivePrompts = on }

// Update evaluates one frame. viewpoint is the current head position; confirm is this
// frame's activation, if it has not been consumed by an earlier hotspot. It returns
// true when the hotspot acted on confirm.
func (h *Hotspot) Update(viewpoint geom.Vec3, confirm bool) (consumed bool) {
	if !h.enabled {
		return false
	}

	h.viewpoint = viewpoint
	h.hasViewpoint = true
	h.distance = geom.Distance(viewpoint, h.cfg.Position)
	h.updatePromptPlacement()

	if h.state == Active && !h.isOwner() {
		// Ownership went away without a callback; settle from distance.
		slog.Debug("Hotspot: lost display without notification", "hotspot", h.cfg.Name)
		h.settle()
	}

	if h.isOwner() && h.distance > h.cfg.AutoHideDistance {
		slog.Debug("Hotspot: auto-hide", "hotspot", h.cfg.Name, "distance", h.distance)
		h.panel.Hide()
	}

	if h.state != Active {
		h.setPrompt(h.distance <= h.cfg.PromptDistance && h.promptAllowed())
	}

	if confirm {
		consumed = h.handleConfirm()
	}

	logging.TraceDefault("Hotspot: frame", "hotspot", h.cfg.Name, "state", h.state, "distance", h.distance)
	return consumed
}

func (h *Hotspot) handleConfirm() bool {
	if h.panel == nil {
		if !h.warnedNoPanel {
			slog.Warn("Hotspot: no display wired, confirm ignored", "hotspot", h.cfg.Name)
			h.warnedNoPanel = true
		}
		return false
	}

	if h.isOwner() && h.panel.IsVisible() {
		h.panel.Hide()
		return true
	}

	if h.state != Prompted {
		return false
	}

	if err := h.panel.Show(h.cfg.Content, h); err != nil {
		slog.Debug("Hotspot: display unavailable", "hotspot", h.cfg.Name, "error", err)
		return false
	}
	h.enter(Active)
	return true
}

// OnDisplayClosed is called by the display while it releases this hotspot. The prompt
// reappears at once if the viewpoint is still within prompt range.
func (h *Hotspot) OnDisplayClosed() {
	if h.state != Active {
		return
	}
	h.settle()
}

func (h *Hotspot) settle() {
	if h.enabled && h.hasViewpoint && h.IsWithinPromptDistance() && h.promptAllowed() {
		h.enter(Prompted)
		return
	}
	h.enter(Idle)
}

// Disable releases the display if owned, hides the prompt and stops evaluation.
func (h *Hotspot) Disable() {
	if !h.enabled {
		return
	}
	h.enabled = false
	if h.isOwner() {
		h.panel.Hide()
	}
	h.enter(Idle)
}

// Enable resumes evaluation from the next frame.
func (h *Hotspot) Enable() { h.enabled = true }

func (h *Hotspot) setPrompt(show bool) {
	switch {
	case show && h.state == Idle:
		h.enter(Prompted)
	case !show && h.state == Prompted:
		h.enter(Idle)
	}
}

func (h *Hotspot) enter(s State) {
	h.state = s
	visible := s == Prompted
	if visible == h.promptVisible {
		return
	}
	h.promptVisible = visible

	typ := event.PromptHidden
	if visible {
		typ = event.PromptShown
	}
	h.bus.Publish(event.Event{Type: typ, Hotspot: h.cfg.Name, Title: h.cfg.Content.Title})
}

func (h *Hotspot) promptAllowed() bool {
	if !h.exclusivePrompts || h.panel == nil {
		return true
	}
	return !h.panel.IsVisible()
}

func (h *Hotspot) isOwner() bool {
	if h.panel == nil {
		return false
	}
	owner := h.panel.CurrentOwner()
	return owner != nil && owner == display.Owner(h)
}

func (h *Hotspot) updatePromptPlacement() {
	h.prompt.Position = h.cfg.Position.Add(h.cfg.PromptOffset)
	if dir, ok := geom.LookAt(h.viewpoint, h.prompt.Position); ok {
		h.prompt.Facing = dir
	}
}

// IsWithinPromptDistance reports whether the last observed viewpoint is within
// prompt range.
func (h *Hotspot) IsWithinPromptDistance() bool {
	return h.hasViewpoint && h.distance <= h.cfg.PromptDistance
}

// Name implements display.Owner.
func (h *Hotspot) Name() string { return h.cfg.Name }

// State returns the current interaction state.
func (h *Hotspot) State() State { return h.state }

// PromptVisible reports whether the prompt is shown.
func (h *Hotspot) PromptVisible() bool { return h.promptVisible }

// Enabled reports whether the hotspot is evaluated.
func (h *Hotspot) Enabled() bool { return h.enabled }

// Config returns the normalized configuration.
func (h *Hotspot) Config() Config { return h.cfg }

// Prompt returns the prompt placement.
func (h *Hotspot) Prompt() PromptPlacement { return h.prompt }

// Status is a read-only copy of a hotspot for reporting.
type Status struct {
	Name             string          `json:"name"`
	Title            string          `json:"title"`
	State            string          `json:"state"`
	PromptVisible    bool            `json:"prompt_visible"`
	PromptText       string          `json:"prompt_text"`
	Enabled          bool            `json:"enabled"`
	Distance         float64         `json:"distance"`
	PromptDistance   float64         `json:"prompt_distance"`
	AutoHideDistance float64         `json:"auto_hide_distance"`
	Position         geom.Vec3       `json:"position"`
	Prompt           PromptPlacement `json:"prompt"`
}

// Snapshot copies the hotspot state.
func (h *Hotspot) Snapshot() Status {
	return Status{
		Name:             h.cfg.Name,
		Title:            h.cfg.Content.Title,
		State:            h.state.String(),
		PromptVisible:    h.promptVisible,
		PromptText:       h.cfg.PromptText,
		Enabled:          h.enabled,
		Distance:         h.distance,
		PromptDistance:   h.cfg.PromptDistance,
		AutoHideDistance: h.cfg.AutoHideDistance,
		Position:         h.cfg.Position,
		Prompt:           h.prompt,
	}
}

// Package display implements the single shared information panel. Hotspots compete
// for it; the panel enforces that exactly one of them owns it at a time.
package display

import (
	"errors"
	"log/slog"
	"time"

	"organtour/pkg/event"
	"organtour/pkg/geom"
)

var (
	// ErrBusy is returned by Show when a different owner holds the panel.
	ErrBusy = errors.New("display owned by another hotspot")
	// ErrNoRequester is returned by Show when called without an owner.
	ErrNoRequester = errors.New("display requester is nil")
)

// DefaultCloseHint is shown at the bottom of the panel.
const DefaultCloseHint = "Press the info button to close"

// Content is what the panel shows.
type Content struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Owner is a hotspot that can hold the panel.
type Owner interface {
	Name() string
	// OnDisplayClosed is called from Hide before ownership is cleared, so the owner can
	// settle its next local state in the same frame.
	OnDisplayClosed()
}

// Options configure fading and anchoring.
type Options struct {
	FadeDuration   time.Duration
	Reanchor       bool
	AnchorDistance float64
	AnchorHeight   float64
	FaceViewpoint  bool
	FloorHeight    float64
	// AnchorRoot, when set, replaces the viewpoint's floor projection as the anchor origin.
	AnchorRoot *geom.Vec3
	CloseHint  string
}

// DefaultOptions mirror the exhibit's tuned panel values.
func DefaultOptions() Options {
	return Options{
		FadeDuration:   150 * time.Millisecond,
		Reanchor:       true,
		AnchorDistance: 0.8,
		AnchorHeight:   1.35,
		FaceViewpoint:  true,
		CloseHint:      DefaultCloseHint,
	}
}

// Display is the shared panel.
//
// It is not safe for concurrent use. All calls happen on the frame loop; Show re-reads
// the owner at the point of acquisition, which is what keeps two hotspots evaluated in
// the same frame from both winning.
type Display struct {
	opts Options
	bus  *event.Bus

	content   Content
	owner     Owner
	visible   bool
	alpha     float64
	fade      *fadeTask
	placement Placement

	pose    geom.Pose
	hasPose bool
}

// New creates a hidden display. bus may be nil.
func New(opts Options, bus *event.Bus) *Display {
	if opts.FadeDuration < 0 {
		opts.FadeDuration = 0
	}
	if opts.CloseHint == "" {
		opts.CloseHint = DefaultCloseHint
	}
	return &Display{opts: opts, bus: bus}
}

// Observe records the viewpoint pose for this frame. Show anchors against it and Tick
// billboards toward it.
func (d *Display) Observe(pose geom.Pose) {
	d.pose = pose
	d.hasPose = true
}

// Show hands the panel to requester and starts fading in. It fails with ErrBusy,
// without touching any state, if another owner holds the panel.
func (d *Display) Show(content Content, requester Owner) error {
	if requester == nil {
		slog.Warn("Display: Show called without requester")
		return ErrNoRequester
	}
	if d.owner != nil && d.owner != requester {
		slog.Debug("Display: Show rejected", "requester", requester.Name(), "owner", d.owner.Name())
		return ErrBusy
	}

	d.owner = requester
	d.content = content
	d.reanchor()
	d.startFade(1)

	slog.Debug("Display: Opened", "owner", requester.Name(), "title", content.Title)
	d.bus.Publish(event.Event{Type: event.DisplayOpened, Hotspot: requester.Name(), Title: content.Title})
	return nil
}

// Hide starts fading out and releases the owner. The owner's OnDisplayClosed runs
// before ownership is cleared. Hide without an owner is a no-op. If the callback
// re-acquires the panel, no DisplayClosed is published.
func (d *Display) Hide() {
	owner := d.owner
	if owner == nil {
		return
	}

	d.startFade(0)
	owner.OnDisplayClosed()

	// The callback may have re-acquired the panel; only clear what we released.
	if d.owner == owner && d.visible {
		slog.Debug("Display: Close superseded by re-acquire", "owner", owner.Name())
		return
	}
	if d.owner == owner {
		d.owner = nil
	}

	slog.Debug("Display: Closed", "owner", owner.Name())
	d.bus.Publish(event.Event{Type: event.DisplayClosed, Hotspot: owner.Name(), Title: d.content.Title})
}

// Release hides the panel only if requester owns it.
func (d *Display) Release(requester Owner) bool {
	if requester == nil || d.owner != requester {
		return false
	}
	d.Hide()
	return true
}

// Tick advances the fade and keeps the panel turned toward the viewpoint.
func (d *Display) Tick(dt time.Duration) {
	if d.fade != nil {
		v, done := d.fade.Step(dt)
		d.alpha = v
		if done {
			d.fade = nil
		}
	}

	if d.opts.FaceViewpoint && d.visible && d.hasPose {
		d.placement.Facing = d.pose.FlatForward()
	}
}

func (d *Display) startFade(target float64) {
	if d.fade != nil {
		d.fade.Cancel()
	}
	d.visible = target > 0
	d.fade = newFade(d.alpha, target, d.opts.FadeDuration)
}

func (d *Display) reanchor() {
	if !d.opts.Reanchor || !d.hasPose {
		return
	}

	origin := d.pose.Position
	origin.Y = d.opts.FloorHeight
	if d.opts.AnchorRoot != nil {
		origin = *d.opts.AnchorRoot
	}

	p := anchorInFront(d.pose, origin, d.opts.AnchorDistance, d.opts.AnchorHeight)
	if !d.opts.FaceViewpoint {
		p.Facing = d.placement.Facing
	}
	d.placement = p
}

// IsVisible reports whether the panel is shown or fading in.
func (d *Display) IsVisible() bool { return d.visible }

// CurrentOwner returns the owning hotspot or nil.
func (d *Display) CurrentOwner() Owner { return d.owner }

// Alpha returns the current visibility fraction in [0,1].
func (d *Display) Alpha() float64 { return d.alpha }

// Interactive reports whether the panel blocks input and accepts pointer focus.
func (d *Display) Interactive() bool { return d.alpha > 0 }

// Transitioning reports whether a fade is in flight.
func (d *Display) Transitioning() bool { return d.fade != nil }

// Content returns the last content shown.
func (d *Display) Content() Content { return d.content }

// Placement returns the panel position and facing.
func (d *Display) Placement() Placement { return d.placement }

// State is a read-only copy of the panel for reporting.
type State struct {
	Visible     bool      `json:"visible"`
	Alpha       float64   `json:"alpha"`
	Interactive bool      `json:"interactive"`
	Owner       string    `json:"owner,omitempty"`
	Content     Content   `json:"content"`
	CloseHint   string    `json:"close_hint"`
	Placement   Placement `json:"placement"`
}

// Snapshot copies the panel state.
func (d *Display) Snapshot() State {
	s := State{
		Visible:     d.visible,
		Alpha:       d.alpha,
		Interactive: d.Interactive(),
		Content:     d.content,
		CloseHint:   d.opts.CloseHint,
		Placement:   d.placement,
	}
	if d.owner != nil {
		s.Owner = d.owner.Name()
	}
	return s
}

package locomotion

import (
	"context"
	"fmt"
	"log/slog"

	"organtour/pkg/config"
	"organtour/pkg/event"
)

// Subsystems are the movement parts the coordinator switches. Nil entries are skipped.
type Subsystems struct {
	Teleport         Toggle
	TeleportSurfaces []Toggle
	Move             Toggle
	MoveBindings     []Toggle
}

// Coordinator keeps exactly one locomotion mode applied and persisted.
//
// It is not safe for concurrent use; it runs on the frame loop like the display.
type Coordinator struct {
	subs        Subsystems
	prefs       PreferenceStore
	bus         *event.Bus
	defaultMode Mode

	mode Mode

	warnedNoPrefs bool
}

// NewCoordinator creates a coordinator. Nothing is applied until ApplySavedPreference
// or SetMode runs. prefs and bus may be nil.
func NewCoordinator(subs Subsystems, prefs PreferenceStore, bus *event.Bus) *Coordinator {
	return &Coordinator{subs: subs, prefs: prefs, bus: bus, defaultMode: Teleport}
}

// SetDefaultMode changes the mode used when no preference is stored.
func (c *Coordinator) SetDefaultMode(m Mode) { c.defaultMode = ModeFromInt(int(m)) }

// SetMode applies mode. Selecting the current mode does nothing: no write, no toggles,
// no event. A failed write is returned after the mode has still been applied.
func (c *Coordinator) SetMode(ctx context.Context, mode Mode) error {
	mode = ModeFromInt(int(mode))
	if c.mode == mode {
		return nil
	}
	c.mode = mode

	err := c.persist(ctx, mode)
	c.apply(mode)

	slog.Info("Locomotion: mode applied", "mode", mode)
	typ := event.TeleportMode
	if mode == Smooth {
		typ = event.SmoothMode
	}
	c.bus.Publish(event.Event{Type: typ, Mode: mode.String(), Value: int(mode)})

	return err
}

// SetModeValue clamps v to a valid mode and applies it.
func (c *Coordinator) SetModeValue(ctx context.Context, v int) error {
	return c.SetMode(ctx, ModeFromInt(v))
}

// ApplySavedPreference restores the persisted mode, or the default when none is stored.
// It always applies, even when the saved mode equals the in-memory one.
func (c *Coordinator) ApplySavedPreference(ctx context.Context) error {
	saved := c.defaultMode
	if c.prefs != nil {
		saved = ModeFromInt(c.prefs.GetInt(ctx, config.KeyLocomotionMode, int(c.defaultMode)))
	}
	c.mode = saved.opposite()
	return c.SetMode(ctx, saved)
}

func (c *Coordinator) persist(ctx context.Context, mode Mode) error {
	if c.prefs == nil {
		if !c.warnedNoPrefs {
			slog.Warn("Locomotion: no preference store, mode will not persist")
			c.warnedNoPrefs = true
		}
		return nil
	}
	if err := c.prefs.SetInt(ctx, config.KeyLocomotionMode, int(mode)); err != nil {
		slog.Error("Locomotion: failed to persist mode", "mode", mode, "error", err)
		return fmt.Errorf("persist locomotion mode: %w", err)
	}
	return nil
}

func (c *Coordinator) apply(mode Mode) {
	teleport := mode == Teleport

	setToggle(c.subs.Teleport, teleport)
	for _, s := range c.subs.TeleportSurfaces {
		setToggle(s, teleport)
	}

	setToggle(c.subs.Move, !teleport)
	for _, b := range c.subs.MoveBindings {
		setToggle(b, !teleport)
	}
}

func setToggle(t Toggle, enabled bool) {
	if t == nil {
		return
	}
	t.SetEnabled(enabled)
}

// Mode returns the in-memory mode.
func (c *Coordinator) Mode() Mode { return c.mode }

// Status is a read-only copy of the coordinator for reporting.
type Status struct {
	Mode  string `json:"mode"`
	Value int    `json:"value"`
}

// Snapshot copies the coordinator state.
func (c *Coordinator) Snapshot() Status {
	return Status{Mode: c.mode.String(), Value: int(c.mode)}
}

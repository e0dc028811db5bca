// Package exhibit builds the interactive scene from configuration: the shared display,
// the hotspot table, and the locomotion and turn switches with their coordinators.
package exhibit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"organtour/pkg/config"
	"organtour/pkg/display"
	"organtour/pkg/event"
	"organtour/pkg/hotspot"
	"organtour/pkg/locomotion"
)

// ErrNoHotspots is returned by Build when no configured hotspot survived validation.
var ErrNoHotspots = errors.New("no usable hotspots configured")

// Switch names for the movement providers.
const (
	SwitchTeleport       = "teleport"
	SwitchMove           = "continuous_move"
	SwitchSnapTurn       = "snap_turn"
	SwitchContinuousTurn = "continuous_turn"
)

// Exhibit is the assembled scene. Everything except the switches belongs to the frame
// loop once the scheduler starts.
type Exhibit struct {
	Display  *display.Display
	Hotspots []*hotspot.Hotspot

	Teleport         *locomotion.Switch
	TeleportSurfaces []*locomotion.Switch
	Move             *locomotion.Switch
	MoveBindings     []*locomotion.Switch
	SnapTurn         *locomotion.Switch
	ContinuousTurn   *locomotion.Switch

	Locomotion *locomotion.Coordinator
	Turn       *locomotion.TurnSelector

	byName map[string]*hotspot.Hotspot
}

// Build assembles the exhibit. Hotspots with an empty or duplicate name are skipped
// with a warning; thresholds fall back to the exhibit defaults. prefs and bus may be nil.
func Build(cfg *config.Config, prefs locomotion.PreferenceStore, bus *event.Bus) (*Exhibit, error) {
	e := &Exhibit{
		Display: display.New(DisplayOptions(cfg.Display), bus),
		byName:  make(map[string]*hotspot.Hotspot),
	}

	for i, hc := range cfg.Exhibit.Hotspots {
		if hc.Name == "" {
			slog.Warn("Exhibit: hotspot without name skipped", "index", i)
			continue
		}
		if _, dup := e.byName[hc.Name]; dup {
			slog.Warn("Exhibit: duplicate hotspot skipped", "hotspot", hc.Name, "index", i)
			continue
		}

		h := hotspot.New(hotspotConfig(&cfg.Exhibit, hc), e.Display, bus)
		h.SetExclusivePrompts(cfg.Exhibit.HidePromptsWhileDisplayed)
		if hc.Disabled {
			h.Disable()
		}
		e.Hotspots = append(e.Hotspots, h)
		e.byName[hc.Name] = h
	}
	if len(e.Hotspots) == 0 {
		return nil, ErrNoHotspots
	}

	e.buildLocomotion(&cfg.Locomotion, prefs, bus)

	slog.Info("Exhibit: built", "hotspots", len(e.Hotspots),
		"teleport_surfaces", len(e.TeleportSurfaces), "move_bindings", len(e.MoveBindings))
	return e, nil
}

// DisplayOptions converts the display section into panel options.
func DisplayOptions(dc config.DisplayConfig) display.Options {
	return display.Options{
		FadeDuration:   time.Duration(dc.FadeDuration),
		Reanchor:       dc.Reanchor,
		AnchorDistance: dc.AnchorDistance.Meters(),
		AnchorHeight:   dc.AnchorHeight.Meters(),
		FaceViewpoint:  dc.FaceViewpoint,
		FloorHeight:    dc.FloorHeight.Meters(),
		AnchorRoot:     dc.AnchorRoot,
		CloseHint:      dc.CloseHint,
	}
}

func hotspotConfig(ec *config.ExhibitConfig, hc config.HotspotConfig) hotspot.Config {
	c := hotspot.Config{
		Name:             hc.Name,
		Content:          display.Content{Title: hc.Title, Description: hc.Description},
		Position:         hc.Position,
		PromptOffset:     hotspot.DefaultPromptOffset,
		PromptDistance:   ec.DefaultPromptDistance.Meters(),
		AutoHideDistance: ec.DefaultAutoHideDistance.Meters(),
		PromptText:       ec.PromptText,
	}
	if c.Content.Title == "" {
		c.Content.Title = hc.Name
	}
	if hc.PromptOffset != nil {
		c.PromptOffset = *hc.PromptOffset
	}
	if hc.PromptDistance > 0 {
		c.PromptDistance = hc.PromptDistance.Meters()
	}
	if hc.AutoHideDistance > 0 {
		c.AutoHideDistance = hc.AutoHideDistance.Meters()
	}
	return c
}

func (e *Exhibit) buildLocomotion(lc *config.LocomotionConfig, prefs locomotion.PreferenceStore, bus *event.Bus) {
	e.Teleport = locomotion.NewSwitch(SwitchTeleport)
	e.Move = locomotion.NewSwitch(SwitchMove)
	e.SnapTurn = locomotion.NewSwitch(SwitchSnapTurn)
	e.ContinuousTurn = locomotion.NewSwitch(SwitchContinuousTurn)

	subs := locomotion.Subsystems{Teleport: e.Teleport, Move: e.Move}
	for _, name := range lc.TeleportSurfaces {
		s := locomotion.NewSwitch(name)
		e.TeleportSurfaces = append(e.TeleportSurfaces, s)
		subs.TeleportSurfaces = append(subs.TeleportSurfaces, s)
	}
	for _, name := range lc.MoveBindings {
		s := locomotion.NewSwitch(name)
		e.MoveBindings = append(e.MoveBindings, s)
		subs.MoveBindings = append(subs.MoveBindings, s)
	}

	e.Locomotion = locomotion.NewCoordinator(subs, prefs, bus)
	e.Locomotion.SetDefaultMode(locomotion.ModeFromInt(lc.DefaultMode))

	e.Turn = locomotion.NewTurnSelector(e.SnapTurn, e.ContinuousTurn, prefs, bus)
	e.Turn.SetDefault(locomotion.TurnStyleFromInt(lc.TurnDefault))
}

// Restore applies the persisted locomotion mode and turn style.
func (e *Exhibit) Restore(ctx context.Context) error {
	e.Turn.ApplySavedPreference(ctx)
	if err := e.Locomotion.ApplySavedPreference(ctx); err != nil {
		return fmt.Errorf("restore locomotion: %w", err)
	}
	return nil
}

// Hotspot returns the hotspot called name, or nil.
func (e *Exhibit) Hotspot(name string) *hotspot.Hotspot {
	return e.byName[name]
}

// Switches lists every movement switch in a stable order.
func (e *Exhibit) Switches() []*locomotion.Switch {
	out := []*locomotion.Switch{e.Teleport}
	out = append(out, e.TeleportSurfaces...)
	out = append(out, e.Move)
	out = append(out, e.MoveBindings...)
	return append(out, e.SnapTurn, e.ContinuousTurn)
}

// SwitchStates copies every switch. Switches are safe to read from any goroutine.
func (e *Exhibit) SwitchStates() []locomotion.SwitchState {
	sw := e.Switches()
	out := make([]locomotion.SwitchState, 0, len(sw))
	for _, s := range sw {
		out = append(out, s.State())
	}
	return out
}

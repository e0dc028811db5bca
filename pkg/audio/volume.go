package audio

import (
	"context"
	"fmt"
	"log/slog"

	"organtour/pkg/config"
	"organtour/pkg/event"
)

// PreferenceStore persists named integers.
type PreferenceStore interface {
	GetInt(ctx context.Context, key string, def int) int
	SetInt(ctx context.Context, key string, value int) error
}

// VolumeControl owns the master volume preference and applies it to a player.
// It runs on the frame loop like the other preference-backed controls.
type VolumeControl struct {
	player *CuePlayer
	prefs  PreferenceStore
	bus    *event.Bus
	def    int

	level   int
	applied bool
}

// NewVolumeControl creates a control with def as the level used when nothing is
// stored. player, prefs and bus may be nil.
func NewVolumeControl(player *CuePlayer, prefs PreferenceStore, bus *event.Bus, def int) *VolumeControl {
	return &VolumeControl{player: player, prefs: prefs, bus: bus, def: clampLevel(def)}
}

// ApplySavedPreference reads the stored level and applies it without writing it back.
func (v *VolumeControl) ApplySavedPreference(ctx context.Context) int {
	level := v.def
	if v.prefs != nil {
		level = v.prefs.GetInt(ctx, config.KeyVolume, v.def)
	}
	v.apply(clampLevel(level))
	return v.level
}

// Set persists and applies level, clamped to 0..100. Setting the current level does
// nothing. A failed write is logged and returned, the level is applied anyway.
func (v *VolumeControl) Set(ctx context.Context, level int) error {
	level = clampLevel(level)
	if v.applied && v.level == level {
		return nil
	}

	var err error
	if v.prefs != nil {
		if err = v.prefs.SetInt(ctx, config.KeyVolume, level); err != nil {
			slog.Error("Audio: failed to persist volume", "level", level, "error", err)
			err = fmt.Errorf("persist volume: %w", err)
		}
	}

	v.apply(level)
	return err
}

func (v *VolumeControl) apply(level int) {
	v.level = level
	v.applied = true
	if v.player != nil {
		v.player.SetVolume(level)
	}
	slog.Debug("Audio: volume applied", "level", level)
	v.bus.Publish(event.Event{Type: event.VolumeChanged, Value: level})
}

// Level returns the applied level.
func (v *VolumeControl) Level() int { return v.level }

package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate reports every structural problem in the configuration at once.
// Per-hotspot issues (empty names, inverted thresholds) are left to the
// exhibit builder, which skips or clamps them with a warning.
func (c *Config) Validate() error {
	var errs []error

	if c.Ticker.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("ticker.frame_interval must be positive, got %v", time.Duration(c.Ticker.FrameInterval)))
	}
	if c.Display.FadeDuration < 0 {
		errs = append(errs, fmt.Errorf("display.fade_duration must not be negative, got %v", time.Duration(c.Display.FadeDuration)))
	}
	if c.Exhibit.DefaultPromptDistance <= 0 {
		errs = append(errs, fmt.Errorf("exhibit.default_prompt_distance must be positive, got %v", float64(c.Exhibit.DefaultPromptDistance)))
	}
	if c.Exhibit.DefaultAutoHideDistance < c.Exhibit.DefaultPromptDistance {
		errs = append(errs, errors.New("exhibit.default_auto_hide_distance must not be below default_prompt_distance"))
	}
	if c.Locomotion.DefaultMode < 0 || c.Locomotion.DefaultMode > 1 {
		errs = append(errs, fmt.Errorf("locomotion.default_mode must be 0 or 1, got %d", c.Locomotion.DefaultMode))
	}
	if c.Locomotion.TurnDefault < 0 || c.Locomotion.TurnDefault > 1 {
		errs = append(errs, fmt.Errorf("locomotion.turn_default must be 0 or 1, got %d", c.Locomotion.TurnDefault))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		errs = append(errs, fmt.Errorf("audio.volume must be within 0..100, got %d", c.Audio.Volume))
	}
	switch c.Viewpoint.Provider {
	case ViewpointTracked, ViewpointWalker:
	default:
		errs = append(errs, fmt.Errorf("viewpoint.provider %q unknown (tracked, walker)", c.Viewpoint.Provider))
	}
	if c.Viewpoint.Provider == ViewpointWalker && c.Viewpoint.WalkSpeed <= 0 {
		errs = append(errs, errors.New("viewpoint.walk_speed must be positive for the walker"))
	}
	if !c.DB.Ephemeral && c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required unless db.ephemeral is set"))
	}
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}

	return errors.Join(errs...)
}

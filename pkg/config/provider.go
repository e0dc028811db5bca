package config

import (
	"context"
	"strconv"

	"organtour/pkg/store"
)

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	LocomotionMode(ctx context.Context) int
	TurnStyle(ctx context.Context) int
	Volume(ctx context.Context) int

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
// Stored preferences win; the config file supplies the fallback.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) LocomotionMode(ctx context.Context) int {
	return clampInt(p.getInt(ctx, KeyLocomotionMode, p.base.Locomotion.DefaultMode), 0, 1)
}

func (p *UnifiedProvider) TurnStyle(ctx context.Context) int {
	return clampInt(p.getInt(ctx, KeyTurn, p.base.Locomotion.TurnDefault), 0, 1)
}

func (p *UnifiedProvider) Volume(ctx context.Context) int {
	return clampInt(p.getInt(ctx, KeyVolume, p.base.Audio.Volume), 0, 100)
}

// Value returns the effective value for a registered key.
func (p *UnifiedProvider) Value(ctx context.Context, key string) (int, bool) {
	switch key {
	case KeyLocomotionMode:
		return p.LocomotionMode(ctx), true
	case KeyTurn:
		return p.TurnStyle(ctx), true
	case KeyVolume:
		return p.Volume(ctx), true
	default:
		return 0, false
	}
}

// --- Helpers ---

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

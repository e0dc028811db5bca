package store

import (
	"context"
	"log/slog"
	"strconv"
)

// Preferences reads and writes named integer preferences on top of a StateStore.
type Preferences struct {
	state StateStore
}

// NewPreferences wraps st. A nil st yields a Preferences that always returns defaults.
func NewPreferences(st StateStore) *Preferences {
	return &Preferences{state: st}
}

// GetInt returns the stored value for key, or def when it is absent or unreadable.
func (p *Preferences) GetInt(ctx context.Context, key string, def int) int {
	if p == nil || p.state == nil {
		return def
	}
	val, ok := p.state.GetState(ctx, key)
	if !ok || val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("Preferences: unreadable value, using default", "key", key, "value", val, "default", def)
		return def
	}
	return i
}

// SetInt stores value under key. The write is synchronous.
func (p *Preferences) SetInt(ctx context.Context, key string, value int) error {
	if p == nil || p.state == nil {
		return nil
	}
	return p.state.SetState(ctx, key, strconv.Itoa(value))
}

// Has reports whether key has a stored value.
func (p *Preferences) Has(ctx context.Context, key string) bool {
	if p == nil || p.state == nil {
		return false
	}
	_, ok := p.state.GetState(ctx, key)
	return ok
}

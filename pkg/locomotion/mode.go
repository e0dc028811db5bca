// Package locomotion switches the exhibit between teleport and continuous movement, and
// between snap and continuous turning, persisting the user's choice.
package locomotion

import (
	"context"
	"fmt"
	"sync"
)

// Mode is the locomotion mode. Values match the persisted preference.
type Mode int

const (
	Teleport Mode = 0
	Smooth   Mode = 1
)

func (m Mode) String() string {
	switch m {
	case Teleport:
		return "teleport"
	case Smooth:
		return "smooth"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ModeFromInt clamps v into the valid range.
func ModeFromInt(v int) Mode {
	if v <= 0 {
		return Teleport
	}
	return Smooth
}

// ParseMode accepts a mode name or its numeric value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "teleport", "0":
		return Teleport, nil
	case "smooth", "1":
		return Smooth, nil
	default:
		return Teleport, fmt.Errorf("unknown locomotion mode %q", s)
	}
}

func (m Mode) opposite() Mode {
	if m == Teleport {
		return Smooth
	}
	return Teleport
}

// PreferenceStore is where the mode and turn style are persisted.
type PreferenceStore interface {
	GetInt(ctx context.Context, key string, def int) int
	SetInt(ctx context.Context, key string, value int) error
}

// Toggle is a movement subsystem that can be switched on and off: a provider, a
// teleport surface or an input binding.
type Toggle interface {
	SetEnabled(enabled bool)
}

// Switch is a named Toggle that remembers its state. It stands in for the headset
// runtime's providers and bindings, which are external to this process.
type Switch struct {
	name string

	mu      sync.RWMutex
	enabled bool
	changes int
}

// NewSwitch creates a disabled switch.
func NewSwitch(name string) *Switch {
	return &Switch{name: name}
}

// SetEnabled implements Toggle.
func (s *Switch) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled != enabled {
		s.changes++
	}
	s.enabled = enabled
}

// Enabled reports the current state.
func (s *Switch) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Changes counts state flips since creation.
func (s *Switch) Changes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changes
}

// Name returns the switch name.
func (s *Switch) Name() string { return s.name }

// SwitchState is a read-only copy of a switch.
type SwitchState struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// State copies the switch.
func (s *Switch) State() SwitchState {
	return SwitchState{Name: s.name, Enabled: s.Enabled()}
}

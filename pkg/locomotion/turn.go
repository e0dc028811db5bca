package locomotion

import (
	"context"
	"fmt"
	"log/slog"

	"organtour/pkg/config"
	"organtour/pkg/event"
)

// TurnStyle selects how the user rotates.
type TurnStyle int

const (
	SnapTurn       TurnStyle = 0
	ContinuousTurn TurnStyle = 1
)

func (s TurnStyle) String() string {
	switch s {
	case SnapTurn:
		return "snap"
	case ContinuousTurn:
		return "continuous"
	default:
		return fmt.Sprintf("TurnStyle(%d)", int(s))
	}
}

// TurnStyleFromInt clamps v into the valid range.
func TurnStyleFromInt(v int) TurnStyle {
	if v <= 0 {
		return SnapTurn
	}
	return ContinuousTurn
}

// TurnSelector enables exactly one of the snap and continuous turn providers.
type TurnSelector struct {
	snap       Toggle
	continuous Toggle
	prefs      PreferenceStore
	bus        *event.Bus
	def        TurnStyle

	style TurnStyle
}

// NewTurnSelector creates a selector. Any argument may be nil.
func NewTurnSelector(snap, continuous Toggle, prefs PreferenceStore, bus *event.Bus) *TurnSelector {
	return &TurnSelector{snap: snap, continuous: continuous, prefs: prefs, bus: bus}
}

// SetDefault changes the style used when no preference is stored.
func (t *TurnSelector) SetDefault(s TurnStyle) { t.def = TurnStyleFromInt(int(s)) }

// SetStyle persists and applies s. Selecting the current style does nothing.
func (t *TurnSelector) SetStyle(ctx context.Context, s TurnStyle) error {
	s = TurnStyleFromInt(int(s))
	if t.style == s {
		return nil
	}
	t.style = s

	var err error
	if t.prefs != nil {
		if err = t.prefs.SetInt(ctx, config.KeyTurn, int(s)); err != nil {
			slog.Error("Locomotion: failed to persist turn style", "style", s, "error", err)
			err = fmt.Errorf("persist turn style: %w", err)
		}
	}

	t.apply(s)
	return err
}

// SetStyleValue clamps v to a valid style and applies it.
func (t *TurnSelector) SetStyleValue(ctx context.Context, v int) error {
	return t.SetStyle(ctx, TurnStyleFromInt(v))
}

// ApplySavedPreference restores the persisted style and always applies it.
func (t *TurnSelector) ApplySavedPreference(ctx context.Context) {
	saved := t.def
	if t.prefs != nil {
		saved = TurnStyleFromInt(t.prefs.GetInt(ctx, config.KeyTurn, int(t.def)))
	}
	t.style = saved
	t.apply(saved)
}

func (t *TurnSelector) apply(s TurnStyle) {
	setToggle(t.snap, s == SnapTurn)
	setToggle(t.continuous, s == ContinuousTurn)

	slog.Debug("Locomotion: turn style applied", "style", s)
	t.bus.Publish(event.Event{Type: event.TurnChanged, Mode: s.String(), Value: int(s)})
}

// Style returns the in-memory style.
func (t *TurnSelector) Style() TurnStyle { return t.style }

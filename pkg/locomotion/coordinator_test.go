package locomotion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organtour/pkg/config"
	"organtour/pkg/event"
)

// countingPrefs records every write.
type countingPrefs struct {
	values map[string]int
	writes int
	err    error
}

func newCountingPrefs() *countingPrefs {
	return &countingPrefs{values: make(map[string]int)}
}

func (p *countingPrefs) GetInt(_ context.Context, key string, def int) int {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

func (p *countingPrefs) SetInt(_ context.Context, key string, value int) error {
	p.writes++
	if p.err != nil {
		return p.err
	}
	p.values[key] = value
	return nil
}

type rig struct {
	teleport *Switch
	surfaces []*Switch
	move     *Switch
	bindings []*Switch
	prefs    *countingPrefs
	events   []event.Event
	c        *Coordinator
}

func newRig() *rig {
	r := &rig{
		teleport: NewSwitch("teleport"),
		surfaces: []*Switch{NewSwitch("floor"), NewSwitch("platform")},
		move:     NewSwitch("move"),
		bindings: []*Switch{NewSwitch("left"), NewSwitch("right")},
		prefs:    newCountingPrefs(),
	}
	subs := Subsystems{Teleport: r.teleport, Move: r.move}
	for _, s := range r.surfaces {
		subs.TeleportSurfaces = append(subs.TeleportSurfaces, s)
	}
	for _, b := range r.bindings {
		subs.MoveBindings = append(subs.MoveBindings, b)
	}
	bus := event.NewBus()
	bus.Subscribe(func(ev event.Event) { r.events = append(r.events, ev) })
	r.c = NewCoordinator(subs, r.prefs, bus)
	return r
}

// assertExclusive checks the enabled set is a function of the mode.
func (r *rig) assertExclusive(t *testing.T, m Mode) {
	t.Helper()
	teleport := m == Teleport
	assert.Equal(t, teleport, r.teleport.Enabled(), "teleport provider")
	for _, s := range r.surfaces {
		assert.Equal(t, teleport, s.Enabled(), "surface %s", s.Name())
	}
	assert.Equal(t, !teleport, r.move.Enabled(), "move provider")
	for _, b := range r.bindings {
		assert.Equal(t, !teleport, b.Enabled(), "binding %s", b.Name())
	}
}

func TestApplySavedPreference_AbsentKeyIsTeleport(t *testing.T) {
	r := newRig()
	ctx := context.Background()

	require.NoError(t, r.c.ApplySavedPreference(ctx))

	assert.Equal(t, Teleport, r.c.Mode())
	r.assertExclusive(t, Teleport)
	assert.Equal(t, 0, r.prefs.values[config.KeyLocomotionMode])
	require.Len(t, r.events, 1)
	assert.Equal(t, event.TeleportMode, r.events[0].Type)
}

func TestApplySavedPreference_AlwaysApplies(t *testing.T) {
	ctx := context.Background()
	for _, saved := range []Mode{Teleport, Smooth} {
		t.Run(saved.String(), func(t *testing.T) {
			r := newRig()
			r.prefs.values[config.KeyLocomotionMode] = int(saved)

			// The in-memory mode already equals the saved one for Teleport; the apply must
			// still run.
			require.NoError(t, r.c.ApplySavedPreference(ctx))

			assert.Equal(t, saved, r.c.Mode())
			r.assertExclusive(t, saved)
			assert.Len(t, r.events, 1)
		})
	}
}

func TestApplySavedPreference_OutOfRangeClamps(t *testing.T) {
	r := newRig()
	r.prefs.values[config.KeyLocomotionMode] = 9

	require.NoError(t, r.c.ApplySavedPreference(context.Background()))
	assert.Equal(t, Smooth, r.c.Mode())
	r.assertExclusive(t, Smooth)
}

func TestSetMode_Idempotent(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	require.NoError(t, r.c.ApplySavedPreference(ctx))
	writes, events := r.prefs.writes, len(r.events)
	flips := r.teleport.Changes()

	require.NoError(t, r.c.SetMode(ctx, Teleport))

	assert.Equal(t, writes, r.prefs.writes, "no duplicate write")
	assert.Len(t, r.events, events, "no duplicate notification")
	assert.Equal(t, flips, r.teleport.Changes())
}

func TestSetMode_Switches(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	require.NoError(t, r.c.ApplySavedPreference(ctx))

	require.NoError(t, r.c.SetMode(ctx, Smooth))
	r.assertExclusive(t, Smooth)
	assert.Equal(t, 1, r.prefs.values[config.KeyLocomotionMode])
	assert.Equal(t, event.SmoothMode, r.events[len(r.events)-1].Type)
	assert.Equal(t, "smooth", r.events[len(r.events)-1].Mode)

	require.NoError(t, r.c.SetMode(ctx, Teleport))
	r.assertExclusive(t, Teleport)
	assert.Equal(t, 0, r.prefs.values[config.KeyLocomotionMode])
}

func TestSetModeValue_Clamps(t *testing.T) {
	tests := []struct {
		in   int
		want Mode
	}{
		{-5, Teleport},
		{0, Teleport},
		{1, Smooth},
		{7, Smooth},
	}
	for _, tt := range tests {
		r := newRig()
		ctx := context.Background()
		require.NoError(t, r.c.ApplySavedPreference(ctx))

		require.NoError(t, r.c.SetModeValue(ctx, tt.in))
		if r.c.Mode() != tt.want {
			t.Errorf("SetModeValue(%d) mode = %v, want %v", tt.in, r.c.Mode(), tt.want)
		}
		r.assertExclusive(t, tt.want)
	}
}

func TestSetMode_EventSeesNewState(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	require.NoError(t, r.c.ApplySavedPreference(ctx))

	var sawMove bool
	var sawPersisted int
	r.c.bus.Subscribe(func(ev event.Event) {
		sawMove = r.move.Enabled()
		sawPersisted = r.prefs.values[config.KeyLocomotionMode]
	}, event.SmoothMode)

	require.NoError(t, r.c.SetMode(ctx, Smooth))
	assert.True(t, sawMove)
	assert.Equal(t, 1, sawPersisted)
}

func TestSetMode_MissingSubsystems(t *testing.T) {
	move := NewSwitch("move")
	c := NewCoordinator(Subsystems{Move: move, TeleportSurfaces: []Toggle{nil}}, nil, nil)
	ctx := context.Background()

	require.NoError(t, c.ApplySavedPreference(ctx))
	assert.Equal(t, Teleport, c.Mode())
	assert.False(t, move.Enabled())

	require.NoError(t, c.SetMode(ctx, Smooth))
	assert.True(t, move.Enabled())
}

func TestSetMode_PersistFailureStillApplies(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	require.NoError(t, r.c.ApplySavedPreference(ctx))

	boom := errors.New("disk full")
	r.prefs.err = boom

	err := r.c.SetMode(ctx, Smooth)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Smooth, r.c.Mode())
	r.assertExclusive(t, Smooth)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"teleport": Teleport, "0": Teleport, "smooth": Smooth, "1": Smooth} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("fly"); err == nil {
		t.Error("ParseMode(fly) should fail")
	}
}

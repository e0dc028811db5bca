package hotspot

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organtour/pkg/display"
	"organtour/pkg/event"
	"organtour/pkg/geom"
)

// rig runs hotspots against one display the way the scheduler does.
type rig struct {
	d        *display.Display
	hotspots []*Hotspot
}

func newRig(bus *event.Bus, cfgs ...Config) *rig {
	opts := display.DefaultOptions()
	opts.FadeDuration = 100 * time.Millisecond
	r := &rig{d: display.New(opts, bus)}
	for _, c := range cfgs {
		r.hotspots = append(r.hotspots, New(c, r.d, bus))
	}
	return r
}

func (r *rig) frame(pos geom.Vec3, confirm bool, dt time.Duration) {
	r.d.Observe(geom.Pose{Position: pos, Forward: geom.V(0, 0, 1)})
	for _, h := range r.hotspots {
		if h.Update(pos, confirm) {
			confirm = false
		}
	}
	r.d.Tick(dt)
}

func organ(name string, pos geom.Vec3) Config {
	return Config{
		Name:             name,
		Content:          display.Content{Title: name, Description: name + " facts"},
		Position:         pos,
		PromptDistance:   1.25,
		AutoHideDistance: 2.5,
	}
}

// at returns a viewpoint d meters from the origin along +X.
func at(d float64) geom.Vec3 { return geom.V(d, 0, 0) }

func TestNew_NormalizesThresholds(t *testing.T) {
	tests := []struct {
		name               string
		prompt, autoHide   float64
		wantPrompt, wantAH float64
	}{
		{"Defaults", 0, 0, DefaultPromptDistance, DefaultAutoHideDistance},
		{"Valid", 1, 3, 1, 3},
		{"AutoHideBelowPrompt", 2, 1, 2, 2},
		{"Equal", 1.5, 1.5, 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{Name: "x", PromptDistance: tt.prompt, AutoHideDistance: tt.autoHide}, nil, nil)
			cfg := h.Config()
			if cfg.PromptDistance != tt.wantPrompt || cfg.AutoHideDistance != tt.wantAH {
				t.Errorf("got (%v, %v), want (%v, %v)", cfg.PromptDistance, cfg.AutoHideDistance, tt.wantPrompt, tt.wantAH)
			}
			if cfg.AutoHideDistance < cfg.PromptDistance {
				t.Error("auto-hide must not be below prompt distance")
			}
		})
	}
}

func TestPromptHysteresis(t *testing.T) {
	r := newRig(nil, organ("heart", geom.Vec3{}))
	h := r.hotspots[0]

	steps := []struct {
		d    float64
		want State
	}{
		{3.0, Idle},
		{1.25, Prompted}, // inclusive
		{1.0, Prompted},
		{1.26, Idle},
		{0.5, Prompted},
	}
	for _, s := range steps {
		r.frame(at(s.d), false, 10*time.Millisecond)
		if h.State() != s.want {
			t.Errorf("d=%v: state %v, want %v", s.d, h.State(), s.want)
		}
		if h.PromptVisible() != (s.want == Prompted) {
			t.Errorf("d=%v: prompt visible %v", s.d, h.PromptVisible())
		}
	}
}

func TestScenario_OpenThenWalkAway(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]

	r.frame(at(1.0), false, 10*time.Millisecond)
	require.Equal(t, Prompted, a.State())

	r.frame(at(1.0), true, 0)
	require.Equal(t, Active, a.State())
	assert.False(t, a.PromptVisible(), "prompt hides while the panel is open")
	assert.Equal(t, display.Owner(a), r.d.CurrentOwner())

	prev := r.d.Alpha()
	for i := 0; i < 12; i++ {
		r.frame(at(1.0), false, 10*time.Millisecond)
		require.GreaterOrEqual(t, r.d.Alpha(), prev)
		prev = r.d.Alpha()
	}
	assert.Equal(t, 1.0, r.d.Alpha())

	r.frame(at(3.0), false, 10*time.Millisecond)
	assert.Equal(t, Idle, a.State())
	assert.Nil(t, r.d.CurrentOwner())

	prev = r.d.Alpha()
	for i := 0; i < 12; i++ {
		r.frame(at(3.0), false, 10*time.Millisecond)
		require.LessOrEqual(t, r.d.Alpha(), prev)
		prev = r.d.Alpha()
	}
	assert.Equal(t, 0.0, r.d.Alpha())
}

func TestHysteresisBand_KeepsPanelOpen(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]

	r.frame(at(1.0), false, 0)
	r.frame(at(1.0), true, 0)
	require.Equal(t, Active, a.State())

	r.frame(at(2.0), false, 0)
	assert.Equal(t, Active, a.State(), "between prompt and auto-hide distance the panel stays")
	r.frame(at(2.5), false, 0)
	assert.Equal(t, Active, a.State(), "auto-hide is strictly beyond the threshold")
	r.frame(at(2.51), false, 0)
	assert.Equal(t, Idle, a.State())
}

func TestToggleClose_PromptReappears(t *testing.T) {
	bus := event.NewBus()
	var types []event.Type
	bus.Subscribe(func(ev event.Event) { types = append(types, ev.Type) })

	r := newRig(bus, organ("A", geom.Vec3{}))
	a := r.hotspots[0]

	r.frame(at(1.0), false, 0)
	r.frame(at(1.0), true, 0)
	r.frame(at(1.0), true, 0)

	assert.Equal(t, Prompted, a.State())
	assert.True(t, a.PromptVisible())
	assert.Nil(t, r.d.CurrentOwner())
	assert.Equal(t, []event.Type{
		event.PromptShown,
		event.DisplayOpened,
		event.PromptHidden,
		event.PromptShown, // re-shown by the close callback, before DisplayClosed
		event.DisplayClosed,
	}, types)
}

func TestToggleClose_OutsidePromptRange(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]

	r.frame(at(1.0), false, 0)
	r.frame(at(1.0), true, 0)
	r.frame(at(2.0), true, 0)

	assert.Equal(t, Idle, a.State())
	assert.False(t, a.PromptVisible())
}

func TestConfirmInIdle_IsNoop(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]

	r.frame(at(5.0), true, 0)

	assert.Equal(t, Idle, a.State())
	assert.Nil(t, r.d.CurrentOwner())
	assert.False(t, r.d.IsVisible())
}

func TestScenario_ContentionRejected(t *testing.T) {
	// A and B are 1m apart; standing between them puts both in prompt range.
	r := newRig(nil, organ("A", geom.V(0, 0, 0)), organ("B", geom.V(1, 0, 0)))
	a, b := r.hotspots[0], r.hotspots[1]
	mid := geom.V(0.5, 0, 0)

	// A claims the display first, then only B sees the press.
	r.frame(mid, false, 0)
	require.NoError(t, r.d.Show(a.Config().Content, a))
	a.enter(Active)

	require.Equal(t, Prompted, b.State(), "B's prompt is local and stays visible")

	consumed := b.Update(mid, true)
	assert.False(t, consumed, "a rejected Show does not consume the press")
	assert.Equal(t, Prompted, b.State())
	assert.Equal(t, display.Owner(a), r.d.CurrentOwner())

	// After A releases, B can acquire.
	r.d.Hide()
	assert.Equal(t, Prompted, a.State())
	assert.True(t, b.Update(mid, true))
	assert.Equal(t, Active, b.State())
	assert.Equal(t, display.Owner(b), r.d.CurrentOwner())
}

func TestOnePressPerFrame_FirstActorWins(t *testing.T) {
	r := newRig(nil, organ("A", geom.V(0, 0, 0)), organ("B", geom.V(1, 0, 0)))
	a, b := r.hotspots[0], r.hotspots[1]
	mid := geom.V(0.5, 0, 0)

	r.frame(mid, false, 0)
	r.frame(mid, true, 0)
	assert.Equal(t, Active, a.State())
	assert.Equal(t, Prompted, b.State())

	// Next press closes A; it is consumed, so B does not open in the same frame.
	r.frame(mid, true, 0)
	assert.Equal(t, Prompted, a.State())
	assert.Equal(t, Prompted, b.State())
	assert.Nil(t, r.d.CurrentOwner())
}

func TestExclusivePrompts(t *testing.T) {
	r := newRig(nil, organ("A", geom.V(0, 0, 0)), organ("B", geom.V(1, 0, 0)))
	for _, h := range r.hotspots {
		h.SetExclusivePrompts(true)
	}
	a, b := r.hotspots[0], r.hotspots[1]
	mid := geom.V(0.5, 0, 0)

	r.frame(mid, false, 0)
	r.frame(mid, true, 0)
	require.Equal(t, Active, a.State())

	r.frame(mid, false, 0)
	assert.Equal(t, Idle, b.State(), "prompts are hidden while any panel is visible")

	r.frame(mid, true, 0)
	assert.Equal(t, Prompted, a.State(), "display is hidden by the time the callback decides")
	r.frame(mid, false, 0)
	assert.Equal(t, Prompted, b.State())
}

func TestDisable_ReleasesDisplay(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]
	r.frame(at(1.0), false, 0)
	r.frame(at(1.0), true, 0)
	require.Equal(t, Active, a.State())

	a.Disable()
	assert.Equal(t, Idle, a.State())
	assert.Nil(t, r.d.CurrentOwner())
	assert.False(t, a.PromptVisible())

	r.frame(at(1.0), true, 0)
	assert.Equal(t, Idle, a.State(), "disabled hotspots ignore frames")

	a.Enable()
	r.frame(at(1.0), false, 0)
	assert.Equal(t, Prompted, a.State())
}

func TestNoPanel_Degrades(t *testing.T) {
	h := New(organ("A", geom.Vec3{}), nil, nil)

	assert.False(t, h.Update(at(1.0), false))
	assert.Equal(t, Prompted, h.State())
	assert.False(t, h.Update(at(1.0), true))
	assert.Equal(t, Prompted, h.State())
}

func TestExternalClose_SettlesHotspot(t *testing.T) {
	r := newRig(nil, organ("A", geom.Vec3{}))
	a := r.hotspots[0]
	r.frame(at(1.0), false, 0)
	r.frame(at(1.0), true, 0)

	r.d.Hide()
	assert.Equal(t, Prompted, a.State())
}

func TestPromptPlacement_FacesAwayFromViewpoint(t *testing.T) {
	cfg := organ("A", geom.V(0, 1, 0))
	cfg.PromptOffset = geom.V(0, 0.2, 0)
	h := New(cfg, nil, nil)

	h.Update(geom.V(0, 1.2, -2), false)

	p := h.Prompt()
	assert.Equal(t, geom.V(0, 1.2, 0), p.Position)
	assert.InDelta(t, 1.0, p.Facing.Z, 1e-9)
}

// Property: for any walk and any confirm pattern across several hotspots, at most one
// hotspot is Active, it is the display owner, and hotspots within prompt range are
// Prompted or Active.
func TestProperty_SingleOwner(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := newRig(nil,
		organ("heart", geom.V(0, 0, 0)),
		organ("lungs", geom.V(0.8, 0, 0)),
		organ("liver", geom.V(1.6, 0, 0)),
		organ("kidneys", geom.V(0.8, 0, 0.9)),
	)

	pos := geom.V(0.5, 0, 0.3)
	for step := 0; step < 5000; step++ {
		pos = pos.Add(geom.V(rng.Float64()*0.6-0.3, 0, rng.Float64()*0.6-0.3))
		if pos.Len() > 4 {
			pos = pos.Scale(0.5)
		}
		r.frame(pos, rng.Intn(3) == 0, time.Duration(rng.Intn(30))*time.Millisecond)

		active := 0
		for _, h := range r.hotspots {
			if h.State() == Active {
				active++
				if r.d.CurrentOwner() != display.Owner(h) {
					t.Fatalf("step %d: %s active but not owner", step, h.Name())
				}
			}
			if geom.Distance(pos, h.Config().Position) <= h.Config().PromptDistance && h.State() == Idle {
				t.Fatalf("step %d: %s idle within prompt range", step, h.Name())
			}
		}
		if active > 1 {
			t.Fatalf("step %d: %d active hotspots", step, active)
		}
		if (r.d.CurrentOwner() != nil) != r.d.IsVisible() {
			t.Fatalf("step %d: owner/visibility mismatch", step)
		}
	}
}

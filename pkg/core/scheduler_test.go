package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organtour/pkg/display"
	"organtour/pkg/event"
	"organtour/pkg/geom"
	"organtour/pkg/hotspot"
	"organtour/pkg/input"
	"organtour/pkg/locomotion"
	"organtour/pkg/viewpoint"
)

// mockViewpoint implements viewpoint.Provider
type mockViewpoint struct {
	mu    sync.Mutex
	pose  geom.Pose
	state viewpoint.State
	err   error
	calls int
}

func (m *mockViewpoint) Pose(ctx context.Context) (geom.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.pose, m.err
}

func (m *mockViewpoint) State() viewpoint.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == "" {
		return viewpoint.StateActive
	}
	return m.state
}

func (m *mockViewpoint) MoveTo(p geom.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = geom.Pose{Position: p, Forward: geom.V(0, 0, 1)}
}

type fixture struct {
	vp      *mockViewpoint
	trigger *input.Trigger
	disp    *display.Display
	heart   *hotspot.Hotspot
	lungs   *hotspot.Hotspot
	coord   *locomotion.Coordinator
	sched   *Scheduler
	events  []event.Type
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{vp: &mockViewpoint{}, trigger: input.NewTrigger()}

	bus := event.NewBus()
	bus.Subscribe(func(ev event.Event) { f.events = append(f.events, ev.Type) })

	opts := display.DefaultOptions()
	opts.FadeDuration = 100 * time.Millisecond
	f.disp = display.New(opts, bus)

	// Overlapping prompt ranges: a viewpoint at the origin is within range of both.
	f.heart = hotspot.New(hotspot.Config{
		Name:     "heart",
		Content:  display.Content{Title: "Heart"},
		Position: geom.V(0.5, 0, 0),
	}, f.disp, bus)
	f.lungs = hotspot.New(hotspot.Config{
		Name:     "lungs",
		Content:  display.Content{Title: "Lungs"},
		Position: geom.V(-0.5, 0, 0),
	}, f.disp, bus)
	f.coord = locomotion.NewCoordinator(locomotion.Subsystems{}, nil, bus)

	f.sched = NewScheduler(5*time.Millisecond, f.vp, f.trigger, Frame{
		Display:    f.disp,
		Hotspots:   []*hotspot.Hotspot{f.heart, f.lungs},
		Locomotion: f.coord,
	})
	return f
}

func TestScheduler_FirstHotspotConsumesConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.vp.MoveTo(geom.V(0, 0, 0))
	f.sched.Step(ctx, 16*time.Millisecond)
	require.True(t, f.heart.PromptVisible())
	require.True(t, f.lungs.PromptVisible())

	f.trigger.Press()
	f.sched.Step(ctx, 16*time.Millisecond)

	assert.Equal(t, hotspot.Active, f.heart.State())
	assert.Equal(t, hotspot.Prompted, f.lungs.State(), "press consumed by the first hotspot")
	assert.Equal(t, f.heart, f.disp.CurrentOwner())

	snap := f.sched.Snapshot()
	assert.Equal(t, uint64(2), snap.Frame)
	assert.Equal(t, "heart", snap.Display.Owner)
	assert.True(t, snap.Display.Visible)
	require.Len(t, snap.Hotspots, 2)
	assert.Equal(t, "active", snap.Hotspots[0].State)
	assert.Equal(t, "prompted", snap.Hotspots[1].State)
	assert.Equal(t, 2, f.vp.calls, "pose sampled once per frame")
}

func TestScheduler_SecondPressClosesAndReprompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.vp.MoveTo(geom.V(0, 0, 0))
	f.trigger.Press()
	f.sched.Step(ctx, 0)
	require.Equal(t, hotspot.Active, f.heart.State())

	f.trigger.Press()
	f.sched.Step(ctx, 0)

	assert.Equal(t, hotspot.Prompted, f.heart.State())
	assert.Equal(t, hotspot.Prompted, f.lungs.State(), "the close consumed the press")
	assert.Nil(t, f.disp.CurrentOwner())
}

func TestScheduler_FadeAdvancesPerFrame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.vp.MoveTo(geom.V(0, 0, 0))
	f.trigger.Press()
	f.sched.Step(ctx, 0)
	assert.InDelta(t, 0.0, f.sched.Snapshot().Display.Alpha, 1e-9)
	assert.False(t, f.sched.Snapshot().Display.Interactive)

	f.sched.Step(ctx, 50*time.Millisecond)
	assert.InDelta(t, 0.5, f.sched.Snapshot().Display.Alpha, 1e-9)
	assert.True(t, f.sched.Snapshot().Display.Interactive)

	f.sched.Step(ctx, 80*time.Millisecond)
	assert.InDelta(t, 1.0, f.sched.Snapshot().Display.Alpha, 1e-9)
}

func TestScheduler_NotTracking(t *testing.T) {
	tests := []struct {
		name  string
		state viewpoint.State
		err   error
	}{
		{"Disconnected", viewpoint.StateDisconnected, nil},
		{"Inactive", viewpoint.StateInactive, nil},
		{"Pose error", viewpoint.StateActive, viewpoint.ErrNotTracking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.vp.MoveTo(geom.V(0, 0, 0))
			f.vp.state = tt.state
			f.vp.err = tt.err

			f.trigger.Press()
			f.sched.Step(context.Background(), 16*time.Millisecond)

			if f.heart.State() != hotspot.Idle {
				t.Errorf("hotspot evaluated while not tracking: %v", f.heart.State())
			}
			if f.trigger.Poll() {
				t.Error("press should have been consumed by the frame")
			}
			snap := f.sched.Snapshot()
			if snap.Tracking != tt.state {
				t.Errorf("tracking = %v, want %v", snap.Tracking, tt.state)
			}
			if snap.HasPose {
				t.Error("snapshot should carry no pose")
			}
		})
	}
}

func TestScheduler_DoRunsBeforeEvaluation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.vp.MoveTo(geom.V(0, 0, 0))

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.sched.Do(ctx, func() error {
			f.heart.Disable()
			return nil
		})
	}()

	// Step until the closure was picked up.
	require.Eventually(t, func() bool { return len(f.sched.queue) == 1 }, time.Second, time.Millisecond)
	f.trigger.Press()
	f.sched.Step(ctx, 0)
	require.NoError(t, <-errCh)

	assert.False(t, f.heart.Enabled())
	assert.Equal(t, hotspot.Idle, f.heart.State())
	assert.Equal(t, hotspot.Active, f.lungs.State(), "disabled hotspot did not take the press")
}

func TestScheduler_StartAndDo(t *testing.T) {
	f := newFixture(t)
	f.vp.MoveTo(geom.V(10, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sched.Start(ctx) }()

	err := f.sched.Do(context.Background(), func() error {
		return f.sched.Frame().Locomotion.SetMode(ctx, locomotion.Smooth)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sched.Snapshot().Locomotion.Mode == "smooth"
	}, time.Second, time.Millisecond)

	boom := errors.New("boom")
	err = f.sched.Do(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)

	cancel()
	require.NoError(t, <-done)

	err = f.sched.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestScheduler_DoHonorsContext(t *testing.T) {
	f := newFixture(t)
	for range queueSize {
		f.sched.queue <- &request{fn: func() error { return nil }, done: make(chan struct{})}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// The queue is full and nobody steps the scheduler, so the closure is never queued.
	ran := false
	err := f.sched.Do(ctx, func() error { ran = true; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	f.sched.Step(context.Background(), 0)
	assert.False(t, ran, "a closure that was never queued must not run")
}

func TestScheduler_DoOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	boom := errors.New("boom")
	ran := make(chan error, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.sched.Do(ctx, func() error {
			ran <- ctx.Err()
			return boom
		})
	}()

	require.Eventually(t, func() bool { return len(f.sched.queue) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("Do returned %v before the queued closure ran", err)
	case <-time.After(20 * time.Millisecond):
	}

	f.sched.Step(context.Background(), 0)
	assert.ErrorIs(t, <-ran, context.Canceled, "closure runs after the caller gave up")
	assert.ErrorIs(t, <-errCh, boom, "Do reports the closure's own result")
}

func TestScheduler_EventOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.vp.MoveTo(geom.V(0.5, 0, 0.3))
	f.trigger.Press()
	f.sched.Step(ctx, 0)

	want := []event.Type{event.PromptShown, event.DisplayOpened, event.PromptHidden, event.PromptShown}
	assert.Equal(t, want, f.events)
}

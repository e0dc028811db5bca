package viewpoint

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"organtour/pkg/geom"
	"organtour/pkg/input"
)

// Walker phases.
const (
	PhaseWalking = "WALKING"
	PhaseDwell   = "DWELL"
)

// DefaultStandOff is how far in front of a stop the walker halts.
const DefaultStandOff = 0.8

// Stop is a point the walker visits.
type Stop struct {
	Name   string
	Target geom.Vec3
}

// WalkerConfig holds the scripted tour settings.
type WalkerConfig struct {
	Start     geom.Vec3
	EyeHeight float64
	Speed     float64 // m/s
	Dwell     time.Duration
	StandOff  float64
}

// Walker is a Provider that walks a looping floor route past every stop, presses the
// confirm trigger on arrival and again before leaving. It replaces a headset for demos.
type Walker struct {
	mu      sync.Mutex
	cfg     WalkerConfig
	stops   []Stop
	route   orb.LineString // floor points: start, then one stand-off point per stop
	trigger *input.Trigger

	pos     orb.Point
	forward geom.Vec3
	leg     int // index into route of the current destination
	phase   string
	dwellT  time.Duration

	last time.Time
	now  func() time.Time
}

// NewWalker builds the route. trigger may be nil, in which case the walker only moves.
func NewWalker(cfg WalkerConfig, stops []Stop, trigger *input.Trigger) *Walker {
	if cfg.StandOff <= 0 {
		cfg.StandOff = DefaultStandOff
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 0.7
	}
	if cfg.Dwell <= 0 {
		cfg.Dwell = 5 * time.Second
	}

	w := &Walker{
		cfg:     cfg,
		stops:   stops,
		trigger: trigger,
		pos:     cfg.Start.Floor(),
		forward: geom.V(0, 0, 1),
		phase:   PhaseWalking,
		now:     time.Now,
	}
	w.route = buildRoute(cfg.Start.Floor(), stops, cfg.StandOff)
	w.leg = 1
	if len(w.route) < 2 {
		w.leg = 0
	}
	return w
}

// buildRoute places each waypoint standOff meters short of its stop, on the side the
// walker arrives from.
func buildRoute(start orb.Point, stops []Stop, standOff float64) orb.LineString {
	route := orb.LineString{start}
	prev := start
	for _, s := range stops {
		target := s.Target.Floor()
		d := planar.Distance(prev, target)
		wp := target
		if d > standOff {
			t := (d - standOff) / d
			wp = orb.Point{prev[0] + (target[0]-prev[0])*t, prev[1] + (target[1]-prev[1])*t}
		}
		route = append(route, wp)
		prev = wp
	}
	return route
}

// Route returns the floor route, starting point first.
func (w *Walker) Route() orb.LineString {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append(orb.LineString(nil), w.route...)
}

// Pose implements Provider. Each call advances the walk by the wall time since the
// previous call.
func (w *Walker) Pose(ctx context.Context) (geom.Pose, error) {
	if err := ctx.Err(); err != nil {
		return geom.Pose{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if !w.last.IsZero() {
		w.step(now.Sub(w.last))
	}
	w.last = now
	return w.pose(), nil
}

// Advance moves the walker by dt without reading the clock.
func (w *Walker) Advance(dt time.Duration) geom.Pose {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step(dt)
	return w.pose()
}

// State implements Provider. The walker always tracks.
func (w *Walker) State() State { return StateActive }

// Phase returns the current phase and the index of the stop being approached or viewed.
func (w *Walker) Phase() (phase string, stop int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase, w.leg - 1
}

func (w *Walker) pose() geom.Pose {
	return geom.Pose{Position: geom.FromFloor(w.pos, w.cfg.Start.Y+w.cfg.EyeHeight), Forward: w.forward}
}

func (w *Walker) step(dt time.Duration) {
	if len(w.route) < 2 || dt <= 0 {
		return
	}

	for dt > 0 {
		switch w.phase {
		case PhaseDwell:
			left := w.cfg.Dwell - w.dwellT
			if dt < left {
				w.dwellT += dt
				return
			}
			dt -= left
			w.press("leave")
			w.advanceLeg()
			w.phase = PhaseWalking

		case PhaseWalking:
			dest := w.route[w.leg]
			dist := planar.Distance(w.pos, dest)
			if dist > 0 {
				dir := geom.V(dest[0]-w.pos[0], 0, dest[1]-w.pos[1]).Normalized()
				w.forward = dir
			}
			reach := w.cfg.Speed * dt.Seconds()
			if reach < dist {
				t := reach / dist
				w.pos = orb.Point{w.pos[0] + (dest[0]-w.pos[0])*t, w.pos[1] + (dest[1]-w.pos[1])*t}
				return
			}
			// Arrived; carry the unused time into the next phase.
			used := time.Duration(dist / w.cfg.Speed * float64(time.Second))
			dt -= used
			w.pos = dest
			if w.leg == 0 {
				// Back at the start: head for the first stop again.
				w.leg = 1
				continue
			}
			w.arrive()
		}
	}
}

func (w *Walker) arrive() {
	stop := w.stops[w.leg-1]
	eye := geom.FromFloor(w.pos, w.cfg.Start.Y+w.cfg.EyeHeight)
	if dir, ok := geom.LookAt(eye, stop.Target); ok {
		w.forward = dir
	}
	w.phase = PhaseDwell
	w.dwellT = 0
	slog.Debug("Walker: arrived", "stop", stop.Name)
	w.press("arrive")
}

func (w *Walker) advanceLeg() {
	w.leg++
	if w.leg >= len(w.route) {
		w.leg = 0
	}
}

func (w *Walker) press(reason string) {
	if w.trigger == nil {
		return
	}
	slog.Debug("Walker: confirm", "reason", reason)
	w.trigger.Press()
}

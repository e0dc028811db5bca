package display

import (
	"time"

	"organtour/pkg/geom"
)

// fadeTask is a resumable, cancellable alpha transition. It advances only when
// stepped by the frame loop; cancelling it stops future steps and leaves alpha
// wherever the last step put it.
type fadeTask struct {
	from, to  float64
	elapsed   time.Duration
	duration  time.Duration
	cancelled bool
}

func newFade(from, to float64, duration time.Duration) *fadeTask {
	return &fadeTask{from: from, to: to, duration: duration}
}

// Cancel stops the task. Later steps are no-ops.
func (f *fadeTask) Cancel() { f.cancelled = true }

// Step advances the task by dt and returns the interpolated value and whether the
// task has finished. A finished task always lands exactly on its target.
func (f *fadeTask) Step(dt time.Duration) (value float64, done bool) {
	if f.cancelled {
		return f.current(), true
	}
	if dt > 0 {
		f.elapsed += dt
	}
	if f.duration <= 0 || f.elapsed >= f.duration {
		f.elapsed = f.duration
		return f.to, true
	}
	return f.current(), false
}

func (f *fadeTask) current() float64 {
	if f.duration <= 0 {
		return f.to
	}
	return geom.Lerp(f.from, f.to, float64(f.elapsed)/float64(f.duration))
}

// Target returns the value the task moves toward.
func (f *fadeTask) Target() float64 { return f.to }

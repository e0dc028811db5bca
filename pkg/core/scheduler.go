// Package core runs the per-frame pass of the exhibit: it samples the viewpoint, polls
// the confirm trigger, lets every hotspot evaluate and advances the shared display.
package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"organtour/pkg/display"
	"organtour/pkg/geom"
	"organtour/pkg/hotspot"
	"organtour/pkg/input"
	"organtour/pkg/locomotion"
	"organtour/pkg/logging"
	"organtour/pkg/viewpoint"
)

// ErrStopped is returned by Do once the frame loop has exited.
var ErrStopped = errors.New("scheduler stopped")

// DefaultFrameInterval is used when the configured interval is not positive.
const DefaultFrameInterval = 20 * time.Millisecond

const queueSize = 64

// Frame is the state owned by the frame loop. Any field may be nil.
type Frame struct {
	Display    *display.Display
	Hotspots   []*hotspot.Hotspot
	Locomotion *locomotion.Coordinator
	Turn       *locomotion.TurnSelector
	Volume     interface{ Level() int }
}

// Snapshot is an immutable copy of the exhibit after a frame.
type Snapshot struct {
	Frame      uint64            `json:"frame"`
	Time       time.Time         `json:"time"`
	Tracking   viewpoint.State   `json:"tracking"`
	Pose       geom.Pose         `json:"pose"`
	HasPose    bool              `json:"has_pose"`
	Display    display.State     `json:"display"`
	Hotspots   []hotspot.Status  `json:"hotspots"`
	Locomotion locomotion.Status `json:"locomotion"`
	Turn       string            `json:"turn"`
	Volume     int               `json:"volume"`
}

type request struct {
	fn   func() error
	err  error
	done chan struct{}
}

// Scheduler manages the frame heartbeat. Everything in Frame is touched only from the
// goroutine running Start (or the caller of Step); other goroutines go through Do and
// read Snapshot.
type Scheduler struct {
	interval time.Duration
	vp       viewpoint.Provider
	confirm  input.Source
	frame    Frame
	jobs     []Job

	queue    chan *request
	stopped  chan struct{}
	stopOnce sync.Once
	running  sync.WaitGroup

	frames   uint64
	lastPose geom.Pose
	hasPose  bool
	now      func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// NewScheduler creates a scheduler. confirm may be nil.
func NewScheduler(interval time.Duration, vp viewpoint.Provider, confirm input.Source, f Frame) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Scheduler{
		interval: interval,
		vp:       vp,
		confirm:  confirm,
		frame:    f,
		queue:    make(chan *request, queueSize),
		stopped:  make(chan struct{}),
		now:      time.Now,
	}
}

// AddJob registers a job. Call before Start.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the frame loop until ctx is cancelled. It returns once jobs launched by
// the loop have finished.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.running.Wait()
	defer s.stop()

	slog.Info("Scheduler: started", "interval", s.interval, "hotspots", len(s.frame.Hotspots))

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler: stopped", "frames", s.frames)
			return nil
		case <-ticker.C:
			now := s.now()
			s.Step(ctx, now.Sub(last))
			last = now
		}
	}
}

func (s *Scheduler) stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Do runs fn on the frame loop before the next hotspot evaluation and returns its
// error. It fails with ErrStopped once the loop has exited. ctx only bounds the wait
// for a queue slot: once queued, fn always runs and Do waits for it, so fn must not
// rely on ctx still being live.
func (s *Scheduler) Do(ctx context.Context, fn func() error) error {
	req := &request{fn: fn, done: make(chan struct{})}

	select {
	case s.queue <- req:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return req.err
	case <-s.stopped:
		// The final frame may have run it just before the loop exited.
		select {
		case <-req.done:
			return req.err
		default:
			return ErrStopped
		}
	}
}

// Step runs one frame. Start calls it on every tick; tests drive it directly.
func (s *Scheduler) Step(ctx context.Context, dt time.Duration) {
	s.drain()
	s.frames++

	tracking := viewpoint.StateDisconnected
	if s.vp != nil {
		tracking = s.vp.State()
	}

	var confirm bool
	if s.confirm != nil {
		confirm = s.confirm.Poll()
	}

	if tracking == viewpoint.StateActive {
		if pose, err := s.vp.Pose(ctx); err != nil {
			logging.TraceDefault("Scheduler: pose unavailable", "error", err)
		} else {
			s.lastPose, s.hasPose = pose, true
			s.evaluate(pose, confirm)
		}
	} else if confirm {
		slog.Debug("Scheduler: confirm dropped while not tracking", "tracking", tracking)
	}

	if s.frame.Display != nil {
		s.frame.Display.Tick(dt)
	}

	snap := s.buildSnapshot(tracking)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	for _, job := range s.jobs {
		if job.ShouldFire(&snap) {
			s.running.Add(1)
			go func() {
				defer s.running.Done()
				job.Run(ctx, &snap)
			}()
		}
	}
}

func (s *Scheduler) evaluate(pose geom.Pose, confirm bool) {
	if s.frame.Display != nil {
		s.frame.Display.Observe(pose)
	}
	for _, h := range s.frame.Hotspots {
		if h.Update(pose.Position, confirm) {
			confirm = false
		}
	}
}

// drain runs the closures queued before this frame started.
func (s *Scheduler) drain() {
	for n := len(s.queue); n > 0; n-- {
		req := <-s.queue
		req.err = req.fn()
		close(req.done)
	}
}

func (s *Scheduler) buildSnapshot(tracking viewpoint.State) Snapshot {
	snap := Snapshot{
		Frame:    s.frames,
		Time:     s.now(),
		Tracking: tracking,
		Pose:     s.lastPose,
		HasPose:  s.hasPose,
		Hotspots: make([]hotspot.Status, 0, len(s.frame.Hotspots)),
	}
	if s.frame.Display != nil {
		snap.Display = s.frame.Display.Snapshot()
	}
	for _, h := range s.frame.Hotspots {
		snap.Hotspots = append(snap.Hotspots, h.Snapshot())
	}
	if s.frame.Locomotion != nil {
		snap.Locomotion = s.frame.Locomotion.Snapshot()
	}
	if s.frame.Turn != nil {
		snap.Turn = s.frame.Turn.Style().String()
	}
	if s.frame.Volume != nil {
		snap.Volume = s.frame.Volume.Level()
	}
	return snap
}

// Snapshot returns the state published by the last frame.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Frame exposes the loop-owned state to closures passed to Do.
func (s *Scheduler) Frame() Frame { return s.frame }

package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Job is background work the scheduler considers after every frame. ShouldFire runs on
// the frame loop and must be cheap; Run is started on its own goroutine.
type Job interface {
	Name() string
	ShouldFire(s *Snapshot) bool
	Run(ctx context.Context, s *Snapshot)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// TimeJob fires on the first frame and then whenever threshold has elapsed since the
// previous run.
type TimeJob struct {
	BaseJob
	lastTime  atomic.Int64 // unix nanos of the last run
	threshold time.Duration
	action    func(context.Context, Snapshot)
	firstRun  atomic.Bool
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context, Snapshot)) *TimeJob {
	j := &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
	}
	j.firstRun.Store(true)
	return j
}

func (j *TimeJob) ShouldFire(s *Snapshot) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}

	if j.firstRun.Load() {
		return true
	}

	return s.Time.Sub(time.Unix(0, j.lastTime.Load())) >= j.threshold
}

func (j *TimeJob) Run(ctx context.Context, s *Snapshot) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime.Store(s.Time.UnixNano())
	j.firstRun.Store(false)

	j.action(ctx, *s)
}

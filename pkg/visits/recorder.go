// Package visits records the view history of the information panel. Bus events are
// queued without blocking the frame loop and written to the store by a worker.
package visits

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"organtour/pkg/event"
	"organtour/pkg/store"
)

// DefaultQueueSize bounds the events waiting for the worker.
const DefaultQueueSize = 256

// drainTimeout limits how long Run keeps writing queued events after cancellation.
const drainTimeout = 2 * time.Second

// Recorder persists display openings and closings.
type Recorder struct {
	st        store.VisitStore
	sessionID string
	queue     chan event.Event
	tracker   *Tracker
	dropped   atomic.Int64

	// open maps a hotspot to its unclosed view; touched only by the worker.
	open map[string]int64
}

// NewRecorder creates a recorder with a fresh session id. queueSize <= 0 uses
// DefaultQueueSize.
func NewRecorder(st store.VisitStore, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Recorder{
		st:        st,
		sessionID: uuid.NewString(),
		queue:     make(chan event.Event, queueSize),
		tracker:   NewTracker(),
		open:      make(map[string]int64),
	}
}

// Subscribe registers the recorder on bus. Events arriving while the queue is full are
// dropped and counted.
func (r *Recorder) Subscribe(bus *event.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(ev event.Event) {
		select {
		case r.queue <- ev:
		default:
			if r.dropped.Add(1) == 1 {
				slog.Warn("Visits: queue full, dropping events", "capacity", cap(r.queue))
			}
		}
	}, event.PromptShown, event.DisplayOpened, event.DisplayClosed)
}

// Run writes queued events until ctx is cancelled, then drains what is left.
func (r *Recorder) Run(ctx context.Context) error {
	slog.Info("Visits: recorder started", "session", r.sessionID)
	for {
		select {
		case ev := <-r.queue:
			r.handle(ctx, ev)
		case <-ctx.Done():
			r.drain()
			slog.Info("Visits: recorder stopped", "session", r.sessionID, "dropped", r.dropped.Load())
			return nil
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.handle(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) handle(ctx context.Context, ev event.Event) {
	switch ev.Type {
	case event.PromptShown:
		r.tracker.TrackPrompt(ev.Hotspot)

	case event.DisplayOpened:
		r.tracker.TrackOpen(ev.Hotspot)
		if prev, ok := r.open[ev.Hotspot]; ok {
			// Reopened without a close in between: end the previous view here.
			delete(r.open, ev.Hotspot)
			if err := r.st.RecordClose(ctx, prev, ev.Timestamp); err != nil {
				r.tracker.TrackWriteFailure(ev.Hotspot)
				slog.Error("Visits: failed to record closing", "hotspot", ev.Hotspot, "view", prev, "error", err)
			}
		}
		v := &store.View{
			SessionID: r.sessionID,
			Hotspot:   ev.Hotspot,
			Title:     ev.Title,
			OpenedAt:  ev.Timestamp,
		}
		id, err := r.st.RecordOpen(ctx, v)
		if err != nil {
			r.tracker.TrackWriteFailure(ev.Hotspot)
			slog.Error("Visits: failed to record opening", "hotspot", ev.Hotspot, "error", err)
			return
		}
		r.open[ev.Hotspot] = id

	case event.DisplayClosed:
		r.tracker.TrackClose(ev.Hotspot)
		id, ok := r.open[ev.Hotspot]
		if !ok {
			return
		}
		delete(r.open, ev.Hotspot)
		if err := r.st.RecordClose(ctx, id, ev.Timestamp); err != nil {
			r.tracker.TrackWriteFailure(ev.Hotspot)
			slog.Error("Visits: failed to record closing", "hotspot", ev.Hotspot, "view", id, "error", err)
		}
	}
}

// SessionID identifies this process run in the view history.
func (r *Recorder) SessionID() string { return r.sessionID }

// Stats returns per-hotspot interaction counters for this session.
func (r *Recorder) Stats() map[string]HotspotStats { return r.tracker.Snapshot() }

// Dropped returns how many events were lost to a full queue.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// PruneJob returns the retention action for the scheduler: it deletes views older
// than retention. A non-positive retention disables pruning.
func PruneJob(st store.VisitStore, retention time.Duration) func(ctx context.Context) {
	return func(ctx context.Context) {
		if retention <= 0 {
			return
		}
		n, err := st.PruneViews(ctx, retention)
		if err != nil {
			slog.Error("Visits: prune failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("Visits: pruned view history", "removed", n, "retention", retention)
		}
	}
}

// Package input turns raw button state into discrete per-frame activation events.
package input

import "sync"

// Source yields at most one activation per frame.
type Source interface {
	// Poll reports whether an activation happened since the previous poll.
	Poll() bool
}

// Trigger is an edge-detected confirm button. It can be driven by level state
// (SetDown, e.g. a controller's primary button) or by discrete presses (Press, e.g.
// an HTTP call). Each press fires exactly once no matter how long it is held.
//
// Trigger is safe for concurrent use: writers run on input goroutines while Poll runs
// on the frame loop.
type Trigger struct {
	mu      sync.Mutex
	down    bool
	pending bool
	presses uint64
}

// NewTrigger creates a released trigger.
func NewTrigger() *Trigger {
	return &Trigger{}
}

// SetDown reports the current button level. A released->pressed edge queues one activation.
func (t *Trigger) SetDown(down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if down && !t.down {
		t.pending = true
		t.presses++
	}
	t.down = down
}

// Press queues a single activation. Presses that arrive before the next poll collapse
// into one, so a frame never sees more than one confirm.
func (t *Trigger) Press() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = true
	t.presses++
}

// Poll consumes the pending activation.
func (t *Trigger) Poll() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	fired := t.pending
	t.pending = false
	return fired
}

// Presses returns the total number of presses seen.
func (t *Trigger) Presses() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.presses
}

package viewpoint

import (
	"context"
	"sync"
	"time"

	"organtour/pkg/geom"
)

// DefaultStaleAfter is how long a pose stays Active without an update.
const DefaultStaleAfter = 2 * time.Second

// Tracked is a Provider fed by an external tracker through Set. The last pose is kept
// when updates stop; State reports it as inactive.
type Tracked struct {
	mu         sync.RWMutex
	pose       geom.Pose
	has        bool
	updated    time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// NewTracked creates a provider with no pose. staleAfter <= 0 uses DefaultStaleAfter.
func NewTracked(staleAfter time.Duration) *Tracked {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Tracked{staleAfter: staleAfter, now: time.Now}
}

// Set records a new pose. A zero forward vector keeps the previous one.
func (t *Tracked) Set(p geom.Pose) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.Forward.LenSq() == 0 {
		p.Forward = t.pose.Forward
		if p.Forward.LenSq() == 0 {
			p.Forward = geom.V(0, 0, 1)
		}
	}
	t.pose = p
	t.has = true
	t.updated = t.now()
}

// Pose implements Provider.
func (t *Tracked) Pose(ctx context.Context) (geom.Pose, error) {
	if err := ctx.Err(); err != nil {
		return geom.Pose{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.has {
		return geom.Pose{}, ErrNotTracking
	}
	return t.pose, nil
}

// State implements Provider.
func (t *Tracked) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case !t.has:
		return StateDisconnected
	case t.now().Sub(t.updated) > t.staleAfter:
		return StateInactive
	default:
		return StateActive
	}
}

package viewpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"organtour/pkg/geom"
)

func TestTracked(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracked(time.Second)
	tr.now = func() time.Time { return now }

	if _, err := tr.Pose(ctx); !errors.Is(err, ErrNotTracking) {
		t.Errorf("Pose() before Set error = %v, want ErrNotTracking", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("State() = %s, want disconnected", tr.State())
	}

	tr.Set(geom.Pose{Position: geom.V(1, 1.6, 0), Forward: geom.V(1, 0, 0)})
	p, err := tr.Pose(ctx)
	if err != nil {
		t.Fatalf("Pose() error = %v", err)
	}
	if p.Position != geom.V(1, 1.6, 0) {
		t.Errorf("Pose().Position = %v", p.Position)
	}
	if tr.State() != StateActive {
		t.Errorf("State() = %s, want active", tr.State())
	}

	// A zero forward keeps the previous direction.
	tr.Set(geom.Pose{Position: geom.V(2, 1.6, 0)})
	p, _ = tr.Pose(ctx)
	if p.Forward != geom.V(1, 0, 0) {
		t.Errorf("Forward = %v, want previous", p.Forward)
	}

	now = now.Add(2 * time.Second)
	if tr.State() != StateInactive {
		t.Errorf("State() = %s, want inactive after staleness", tr.State())
	}
	if _, err := tr.Pose(ctx); err != nil {
		t.Errorf("stale pose should still be returned, got %v", err)
	}
}

func TestTracked_CancelledContext(t *testing.T) {
	tr := NewTracked(0)
	tr.Set(geom.Pose{Position: geom.V(0, 1.6, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Pose(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Pose() error = %v, want context.Canceled", err)
	}
}

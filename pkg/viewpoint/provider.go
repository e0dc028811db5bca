// Package viewpoint supplies the user's head pose to the frame loop.
package viewpoint

import (
	"context"
	"errors"

	"organtour/pkg/geom"
)

// ErrNotTracking is returned by Pose before the first pose is known.
var ErrNotTracking = errors.New("viewpoint not tracking")

// State represents the tracking state of a provider.
type State string

const (
	// StateDisconnected indicates no pose has been received yet.
	StateDisconnected State = "disconnected"
	// StateInactive indicates the last pose is stale (headset off, app paused).
	StateInactive State = "inactive"
	// StateActive indicates poses are arriving.
	StateActive State = "active"
)

// Provider defines the interface the frame loop samples once per frame.
type Provider interface {
	// Pose returns the current head pose.
	Pose(ctx context.Context) (geom.Pose, error)
	// State returns the current tracking state.
	State() State
}

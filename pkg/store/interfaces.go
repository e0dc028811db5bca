package store

import (
	"context"
	"time"
)

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// View is one opening of the information panel.
type View struct {
	ID        int64      `json:"id"`
	SessionID string     `json:"session_id"`
	Hotspot   string     `json:"hotspot"`
	Title     string     `json:"title"`
	OpenedAt  time.Time  `json:"opened_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// VisitStore handles the panel view history.
type VisitStore interface {
	RecordOpen(ctx context.Context, v *View) (int64, error)
	RecordClose(ctx context.Context, id int64, closedAt time.Time) error
	ViewCounts(ctx context.Context) (map[string]int, error)
	RecentViews(ctx context.Context, limit int) ([]View, error)
	// PruneViews deletes views opened more than olderThan ago and returns how many went.
	PruneViews(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Store composes the sub-interfaces.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	VisitStore

	// Close closes the store connection.
	Close() error
}

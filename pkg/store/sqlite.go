package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"organtour/pkg/db"
)

// timeLayout matches SQLite's CURRENT_TIMESTAMP so text comparisons order correctly.
const timeLayout = "2006-01-02 15:04:05"

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.Warn("Store: state read failed", "key", key, "error", err)
		return "", false
	}
	return val.String, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// --- Views ---

func (s *SQLiteStore) RecordOpen(ctx context.Context, v *View) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO hotspot_views (session_id, hotspot, title, opened_at) VALUES (?, ?, ?, ?)`,
		v.SessionID, v.Hotspot, v.Title, v.OpenedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert view: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("view id: %w", err)
	}
	v.ID = id
	return id, nil
}

func (s *SQLiteStore) RecordClose(ctx context.Context, id int64, closedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hotspot_views SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		closedAt.UTC().Format(timeLayout), id)
	return err
}

func (s *SQLiteStore) ViewCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hotspot, count(*) FROM hotspot_views GROUP BY hotspot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) RecentViews(ctx context.Context, limit int) ([]View, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, hotspot, title, opened_at, closed_at
		 FROM hotspot_views ORDER BY opened_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var v View
		var title sql.NullString
		var opened string
		var closed sql.NullString
		if err := rows.Scan(&v.ID, &v.SessionID, &v.Hotspot, &title, &opened, &closed); err != nil {
			return nil, err
		}
		v.Title = title.String
		v.OpenedAt = parseTime(opened)
		if closed.Valid {
			t := parseTime(closed.String)
			v.ClosedAt = &t
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// PruneViews delegates to the database retention helper.
func (s *SQLiteStore) PruneViews(_ context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.db.PruneViews(olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune views: %w", err)
	}
	return n, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// The driver may hand back RFC3339 for DATETIME columns.
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2
		}
		return time.Time{}
	}
	return t
}

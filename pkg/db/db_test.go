package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"organtour/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"persistent_state", "hotspot_views"} {
		var n int
		if err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestInit_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		d, err := db.Init(path)
		if err != nil {
			t.Fatalf("Init() #%d failed: %v", i, err)
		}
		d.Close()
	}
}

func TestPruneViews(t *testing.T) {
	d, err := db.Init(db.MemoryPath)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	old := time.Now().Add(-48 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	recent := time.Now().UTC().Format("2006-01-02 15:04:05")
	for _, ts := range []string{old, recent} {
		if _, err := d.Exec("INSERT INTO hotspot_views (session_id, hotspot, opened_at) VALUES ('s', 'heart', ?)", ts); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, err := d.PruneViews(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneViews() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}
}

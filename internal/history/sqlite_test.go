package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamj29/nest-matters/internal/infrastructure/database"
	_ "github.com/adamj29/nest-matters/migrations"
)

// openTestRepo creates a migrated temp database and returns a repository on it.
func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history_test.db"),
		WALMode:     true,
		BusyTimeout: 5000,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestRecordStateChange(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	snapshot := Snapshot{
		"state":               "heat",
		"current_temperature": 21.5,
	}
	if err := repo.RecordStateChange(ctx, "climate.nest_google_living", snapshot, SourceStatestream); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "climate.nest_google_living", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("GetHistory() returned %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.EntityID != "climate.nest_google_living" {
		t.Errorf("EntityID = %q", entry.EntityID)
	}
	if entry.Source != SourceStatestream {
		t.Errorf("Source = %q, want %q", entry.Source, SourceStatestream)
	}
	if entry.State["state"] != "heat" {
		t.Errorf("State[state] = %v, want heat", entry.State["state"])
	}
	if entry.State["current_temperature"] != 21.5 {
		t.Errorf("State[current_temperature] = %v, want 21.5", entry.State["current_temperature"])
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestRecordStateChangeValidation(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.RecordStateChange(ctx, "", Snapshot{}, SourceStatestream); err == nil {
		t.Error("RecordStateChange() error = nil for empty entity id")
	}
}

func TestRecordStateChangeDefaults(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Empty source and nil snapshot fall back to defaults.
	if err := repo.RecordStateChange(ctx, "climate.living", nil, ""); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "climate.living", 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if entries[0].Source != SourceStatestream {
		t.Errorf("Source = %q, want %q", entries[0].Source, SourceStatestream)
	}
	if entries[0].State == nil {
		t.Error("State = nil, want empty snapshot")
	}
}

func TestGetHistoryOrderAndLimit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		snapshot := Snapshot{"seq": float64(i)}
		if err := repo.RecordStateChange(ctx, "climate.living", snapshot, SourceRepublish); err != nil {
			t.Fatalf("RecordStateChange() error = %v", err)
		}
	}

	entries, err := repo.GetHistory(ctx, "climate.living", 3)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("GetHistory() returned %d entries, want 3", len(entries))
	}

	// Newest first: last inserted sequence comes first.
	if entries[0].State["seq"] != 4.0 {
		t.Errorf("first entry seq = %v, want 4", entries[0].State["seq"])
	}
}

func TestGetHistoryIsolatesEntities(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	repo.RecordStateChange(ctx, "climate.living", Snapshot{"state": "heat"}, SourceStatestream)
	repo.RecordStateChange(ctx, "climate.bedroom", Snapshot{"state": "cool"}, SourceStatestream)

	entries, err := repo.GetHistory(ctx, "climate.living", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("GetHistory() returned %d entries, want 1", len(entries))
	}
	if entries[0].EntityID != "climate.living" {
		t.Errorf("EntityID = %q, want climate.living", entries[0].EntityID)
	}
}

func TestGetHistoryClampsLimit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Zero and negative limits fall back to the default rather than erroring.
	if _, err := repo.GetHistory(ctx, "climate.living", 0); err != nil {
		t.Errorf("GetHistory(limit=0) error = %v", err)
	}
	if _, err := repo.GetHistory(ctx, "climate.living", -1); err != nil {
		t.Errorf("GetHistory(limit=-1) error = %v", err)
	}
	if _, err := repo.GetHistory(ctx, "climate.living", maxHistoryLimit+100); err != nil {
		t.Errorf("GetHistory(limit=max+100) error = %v", err)
	}
}

func TestGetHistoryEmptyEntity(t *testing.T) {
	repo := openTestRepo(t)

	if _, err := repo.GetHistory(context.Background(), "", 10); err == nil {
		t.Error("GetHistory() error = nil for empty entity id")
	}
}

func TestPruneHistory(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	repo.RecordStateChange(ctx, "climate.living", Snapshot{"state": "heat"}, SourceStatestream)

	// Nothing is older than an hour yet.
	deleted, err := repo.PruneHistory(ctx, time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("PruneHistory() deleted %d rows, want 0", deleted)
	}

	if _, err := repo.PruneHistory(ctx, 0); err == nil {
		t.Error("PruneHistory() error = nil for zero duration")
	}
}

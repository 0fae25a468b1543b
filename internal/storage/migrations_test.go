package storage

import (
	"context"
	"testing"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("Second migrate should be a no-op, got %v", err)
	}
}

func TestMigrate_VersionsAreOrdered(t *testing.T) {
	last := 0
	for _, m := range migrations {
		if m.Version <= last {
			t.Errorf("Migration %d is out of order (previous %d)", m.Version, last)
		}
		last = m.Version
	}
	if last != ExpectedSchemaVersion {
		t.Errorf("Latest migration is %d, expected %d", last, ExpectedSchemaVersion)
	}
}

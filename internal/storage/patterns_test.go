package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

func createTestLender(t *testing.T, store *SQLiteStorage, id, name string, kind model.LenderKind) {
	t.Helper()
	lender := &model.Lender{ID: id, Name: name, Kind: kind}
	if err := store.CreateLender(context.Background(), lender); err != nil {
		t.Fatalf("Failed to create lender: %v", err)
	}
}

func TestSQLiteStorage_CreateLender_Duplicate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)

	dup := &model.Lender{ID: "ondeck", Name: "OnDeck Again", Kind: model.KindMCALender}
	err := store.CreateLender(ctx, dup)
	if !errors.Is(err, common.ErrDuplicateLender) {
		t.Errorf("Expected ErrDuplicateLender, got %v", err)
	}
}

func TestSQLiteStorage_GetLenders_ByKind(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	createTestLender(t, store, "kapitus", "Kapitus", model.KindMCALender)
	createTestLender(t, store, "cach_llc", "CACH LLC", model.KindDebtCollector)

	mca, err := store.GetLenders(ctx, model.KindMCALender)
	if err != nil {
		t.Fatalf("Failed to get lenders: %v", err)
	}
	if len(mca) != 2 {
		t.Errorf("Expected 2 MCA lenders, got %d", len(mca))
	}

	collectors, err := store.GetLenders(ctx, model.KindDebtCollector)
	if err != nil {
		t.Fatalf("Failed to get collectors: %v", err)
	}
	if len(collectors) != 1 {
		t.Errorf("Expected 1 debt collector, got %d", len(collectors))
	}
}

func TestSQLiteStorage_UpsertPattern_CountsUsage(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)

	for i := 0; i < 3; i++ {
		if err := store.UpsertPattern(ctx, "ondeck", "ach debit ondeck capital #ID#"); err != nil {
			t.Fatalf("Failed to upsert pattern: %v", err)
		}
	}

	patterns, err := store.GetPatternsByLender(ctx, "ondeck")
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern row, got %d", len(patterns))
	}
	if patterns[0].UsageCount != 3 {
		t.Errorf("UsageCount = %d, want 3", patterns[0].UsageCount)
	}
	if patterns[0].LastUsedAt.IsZero() {
		t.Error("LastUsedAt should be set")
	}
}

func TestSQLiteStorage_DecrementPatternUsage_FloorsAtZero(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck pmt"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.DecrementPatternUsage(ctx, "ondeck", "ondeck pmt"); err != nil {
			t.Fatalf("Failed to decrement: %v", err)
		}
	}

	patterns, err := store.GetPatternsByLender(ctx, "ondeck")
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Pattern row should survive decrements, got %d rows", len(patterns))
	}
	if patterns[0].UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", patterns[0].UsageCount)
	}
}

func TestSQLiteStorage_SetPatternExcluded(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck pmt"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	if err := store.SetPatternExcluded(ctx, "ondeck", "ondeck pmt", true); err != nil {
		t.Fatalf("Failed to exclude pattern: %v", err)
	}

	patterns, err := store.GetPatternsByLender(ctx, "ondeck")
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}
	if !patterns[0].Excluded {
		t.Error("Pattern should be excluded")
	}

	err = store.SetPatternExcluded(ctx, "ondeck", "no such pattern", true)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_UpdatePatternText_Clash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck pmt"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck capital daily"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	patterns, err := store.GetPatternsByLender(ctx, "ondeck")
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}

	err = store.UpdatePatternText(ctx, patterns[0].ID, patterns[1].NormalizedText)
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}

	if err := store.UpdatePatternText(ctx, patterns[0].ID, "ondeck weekly"); err != nil {
		t.Errorf("Failed to update pattern text: %v", err)
	}
}

func TestSQLiteStorage_GetAllPatterns_CacheInvalidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck pmt"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	first, err := store.GetAllPatterns(ctx)
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(first))
	}

	// A write must drop the snapshot so the next read sees the new row.
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck capital daily"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	second, err := store.GetAllPatterns(ctx)
	if err != nil {
		t.Fatalf("Failed to get patterns: %v", err)
	}
	if len(second) != 2 {
		t.Errorf("Expected 2 patterns after write, got %d", len(second))
	}
}

func TestSQLiteStorage_GetLenderUsage(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestLender(t, store, "ondeck", "OnDeck Capital", model.KindMCALender)
	createTestLender(t, store, "kapitus", "Kapitus", model.KindMCALender)

	for i := 0; i < 2; i++ {
		if err := store.UpsertPattern(ctx, "ondeck", "ondeck pmt"); err != nil {
			t.Fatalf("Failed to upsert pattern: %v", err)
		}
	}
	if err := store.UpsertPattern(ctx, "ondeck", "ondeck capital daily"); err != nil {
		t.Fatalf("Failed to upsert pattern: %v", err)
	}

	usages, err := store.GetLenderUsage(ctx, model.KindMCALender)
	if err != nil {
		t.Fatalf("Failed to get lender usage: %v", err)
	}
	if len(usages) != 2 {
		t.Fatalf("Expected 2 usage rows, got %d", len(usages))
	}

	// Most used lender sorts first.
	if usages[0].Lender.ID != "ondeck" {
		t.Errorf("Expected ondeck first, got %s", usages[0].Lender.ID)
	}
	if usages[0].PatternCount != 2 {
		t.Errorf("PatternCount = %d, want 2", usages[0].PatternCount)
	}
	if usages[0].TotalUsage != 3 {
		t.Errorf("TotalUsage = %d, want 3", usages[0].TotalUsage)
	}
	if usages[0].LastUsedAt == nil {
		t.Error("LastUsedAt should be set for a used lender")
	}

	if usages[1].Lender.ID != "kapitus" {
		t.Errorf("Expected kapitus second, got %s", usages[1].Lender.ID)
	}
	if usages[1].PatternCount != 0 || usages[1].TotalUsage != 0 {
		t.Error("Unused lender should report zero patterns and usage")
	}
	if usages[1].LastUsedAt != nil {
		t.Error("LastUsedAt should be nil for an unused lender")
	}
}

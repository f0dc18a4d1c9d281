package memory

import (
	"context"
	"testing"
	"time"

	"paghetta/internal/core"
)

func TestAppendAndDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := core.Record{
		AccountID: 1,
		Date:      time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		Amount:    core.Money{Cents: -350},
		Note:      "sweets",
		Category:  "Snacks",
	}

	ref, err := store.Append(ctx, rec)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("row ref = %q, want mem:1", ref)
	}
	if len(store.Records()) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.Records()))
	}

	if err := store.Delete(ctx, rec); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.Records()) != 0 {
		t.Errorf("expected empty store after delete")
	}

	// Deleting an absent row is a no-op.
	if err := store.Delete(ctx, rec); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestAppend_RejectsInvalid(t *testing.T) {
	store := New()
	_, err := store.Append(context.Background(), core.Record{
		AccountID: 1,
		Date:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    core.Money{Cents: 100},
	})
	if err == nil {
		t.Fatal("expected validation error for empty note")
	}
}

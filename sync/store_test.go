package sync

import (
	"context"
	"testing"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/g2a"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, _ := store.GetProduct(ctx, "p1"); ok {
		t.Fatal("empty store must miss")
	}

	want := g2a.Product{ID: "p1", Name: "Alpha", Qty: 3}
	if err := store.UpsertProduct(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.GetProduct(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("get after upsert: ok=%v err=%v", ok, err)
	}
	if got.Name != "Alpha" || got.Qty != 3 {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Upsert replaces.
	want.Qty = 7
	store.UpsertProduct(ctx, want)
	got, _, _ = store.GetProduct(ctx, "p1")
	if got.Qty != 7 || store.Len() != 1 {
		t.Errorf("after replace: qty=%d len=%d, want 7 and 1", got.Qty, store.Len())
	}
}

func TestApplierWritesNewRecordsAsIs(t *testing.T) {
	store := NewMemoryStore()
	applier := NewApplier(store, nil, StrategyNewerWins)

	src, dst := sampleProducts()
	dst.ID = "p2"
	applied, conflicts := applier.Apply(context.Background(), []g2a.Product{src, dst})
	if len(conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none on an empty store", conflicts)
	}
	if applied != 2 || store.Len() != 2 {
		t.Errorf("applied %d, stored %d, want 2 and 2", applied, store.Len())
	}
}

func TestApplierNewerWinsKeepsFresherLocalCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stale := g2a.Product{ID: "p1", Name: "Local Fresh", Qty: 99, UpdatedAt: wt("2026-08-28 12:00:00")}
	store.UpsertProduct(ctx, stale)

	incoming := g2a.Product{ID: "p1", Name: "Partner Stale", Qty: 1, UpdatedAt: wt("2026-08-27 12:00:00")}
	applier := NewApplier(store, nil, StrategyNewerWins)

	applied, conflicts := applier.Apply(ctx, []g2a.Product{incoming})
	if applied != 1 || len(conflicts) != 0 {
		t.Fatalf("applied=%d conflicts=%v, want 1 and none", applied, conflicts)
	}
	got, _, _ := store.GetProduct(ctx, "p1")
	if got.Name != "Local Fresh" || got.Qty != 99 {
		t.Errorf("stored %+v, fresher local copy must survive", got)
	}
}

func TestApplierManualStrategyCollectsConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.UpsertProduct(ctx, g2a.Product{ID: "p1", Name: "Existing"})

	incoming := []g2a.Product{
		{ID: "p1", Name: "Changed"}, // conflicts with the stored copy
		{ID: "p2", Name: "Fresh"},   // no stored copy, written directly
	}
	applier := NewApplier(store, nil, StrategyManual)

	applied, conflicts := applier.Apply(ctx, incoming)
	if applied != 1 {
		t.Errorf("applied = %d, want only the new record", applied)
	}
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v, want exactly one", conflicts)
	}
	if apierr.CodeOf(conflicts[0]) != apierr.CodeSyncConflict {
		t.Errorf("conflict code = %v, want %v", apierr.CodeOf(conflicts[0]), apierr.CodeSyncConflict)
	}

	got, _, _ := store.GetProduct(ctx, "p1")
	if got.Name != "Existing" {
		t.Error("manual conflict must leave the stored copy untouched")
	}
}

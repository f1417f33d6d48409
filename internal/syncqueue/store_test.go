package syncqueue

import (
	"context"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAppendAndPending(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "a", EntityType: "product", Op: OpCreate, Payload: []byte(`{"name":"A"}`), CreatedAt: base},
		{ID: "b", EntityType: "product", Op: OpUpdate, Payload: []byte(`{"name":"B"}`), CreatedAt: base.Add(time.Second)},
	}
	for _, rec := range recs {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", rec.ID, err)
		}
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "b" {
		t.Fatalf("unexpected pending set %+v", pending)
	}
	if pending[0].EntityType != "product" || pending[0].Op != OpCreate {
		t.Fatalf("record fields lost: %+v", pending[0])
	}
	if string(pending[0].Payload) != `{"name":"A"}` {
		t.Fatalf("payload lost: %s", pending[0].Payload)
	}
	if !pending[0].CreatedAt.Equal(base) {
		t.Fatalf("created at mismatch: %v", pending[0].CreatedAt)
	}
}

func TestStoreMarkSyncedExcludesFromPending(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := Record{ID: "a", EntityType: "sale", Op: OpCreate, Payload: []byte(`{}`), CreatedAt: time.Now()}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.MarkSynced(ctx, "a"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("synced record still pending: %+v", pending)
	}

	p, s, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if p != 0 || s != 1 {
		t.Fatalf("counts = %d pending / %d synced", p, s)
	}
}

func TestStoreMarkFailedKeepsPendingAndCounts(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := Record{ID: "a", EntityType: "customer", Op: OpUpdate, Payload: []byte(`{}`), CreatedAt: time.Now()}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.MarkFailed(ctx, "a", "remote unavailable"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "a", "still unavailable"); err != nil {
		t.Fatalf("mark failed again: %v", err)
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed record must stay pending, got %+v", pending)
	}
	if pending[0].Attempts != 2 || pending[0].LastError != "still unavailable" {
		t.Fatalf("attempt bookkeeping wrong: %+v", pending[0])
	}
}

func TestStorePurgeSynced(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := Record{ID: "old", EntityType: "sale", Op: OpCreate, Payload: []byte(`{}`), CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := Record{ID: "fresh", EntityType: "sale", Op: OpCreate, Payload: []byte(`{}`), CreatedAt: time.Now()}
	for _, rec := range []Record{old, fresh} {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := store.MarkSynced(ctx, rec.ID); err != nil {
			t.Fatalf("mark synced: %v", err)
		}
	}

	purged, err := store.PurgeSynced(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	_, synced, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if synced != 1 {
		t.Fatalf("expected the fresh record to survive, synced=%d", synced)
	}
}

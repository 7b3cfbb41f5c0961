package ledger_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/identity"
	"dropsort/internal/ledger"
)

func openLedger(t *testing.T, capacity int) *ledger.Ledger {
	t.Helper()
	led, err := ledger.Open(filepath.Join(t.TempDir(), "history.db"), capacity)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = led.Close() })
	return led
}

func entryFor(n int) ledger.Entry {
	return ledger.Entry{
		FileIdentity:    fmt.Sprintf("hash-%04d:%d", n, n),
		SourcePath:      fmt.Sprintf("/drop/IMG_%04d.jpg", n),
		DestinationPath: fmt.Sprintf("/photos/2023/07/04/IMG_%04d.jpg", n),
	}
}

func TestRecordAndLookup(t *testing.T) {
	led := openLedger(t, 10)
	ctx := context.Background()

	id := identity.Identity{Size: 1, HeadHash: "hash-0001"}
	entry := ledger.Entry{
		FileIdentity:    id.String(),
		SourcePath:      "/drop/IMG_0001.jpg",
		DestinationPath: "/photos/2023/07/04/IMG_0001.jpg",
	}
	if err := led.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	found, err := led.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected entry to be found")
	}
	if found.DestinationPath != entry.DestinationPath {
		t.Fatalf("unexpected destination %q", found.DestinationPath)
	}
	if found.ProcessedAt.IsZero() {
		t.Fatal("processed_at should be populated")
	}
}

func TestLookupMissingReturnsNil(t *testing.T) {
	led := openLedger(t, 10)

	found, err := led.Lookup(context.Background(), identity.Identity{Size: 9, HeadHash: "absent"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for unknown identity, got %+v", found)
	}
}

func TestRecordSameIdentityIsIdempotent(t *testing.T) {
	led := openLedger(t, 10)
	ctx := context.Background()

	entry := entryFor(1)
	for i := 0; i < 3; i++ {
		if err := led.Record(ctx, entry); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	count, err := led.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one entry after duplicate records, got %d", count)
	}
}

func TestEvictionKeepsNewestEntries(t *testing.T) {
	const capacity = 5
	led := openLedger(t, capacity)
	ctx := context.Background()

	for n := 1; n <= capacity+3; n++ {
		if err := led.Record(ctx, entryFor(n)); err != nil {
			t.Fatalf("Record %d failed: %v", n, err)
		}
	}

	count, err := led.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if count != capacity {
		t.Fatalf("ledger exceeded cap: %d > %d", count, capacity)
	}

	entries, err := led.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, len(entries))
	}
	// Newest first: 8, 7, 6, 5, 4. The oldest three are gone.
	if entries[0].FileIdentity != entryFor(8).FileIdentity {
		t.Fatalf("unexpected newest entry %q", entries[0].FileIdentity)
	}
	if entries[len(entries)-1].FileIdentity != entryFor(4).FileIdentity {
		t.Fatalf("unexpected oldest surviving entry %q", entries[len(entries)-1].FileIdentity)
	}
}

func TestRecentLimit(t *testing.T) {
	led := openLedger(t, 100)
	ctx := context.Background()
	for n := 1; n <= 10; n++ {
		if err := led.Record(ctx, entryFor(n)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := led.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestReopenPreservesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	led, err := ledger.Open(path, 10)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := led.Record(ctx, entryFor(1)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := led.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := ledger.Open(path, 10)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("history lost across restart: %d entries", count)
	}
}

func TestRecordRejectsEmptyIdentity(t *testing.T) {
	led := openLedger(t, 10)
	err := led.Record(context.Background(), ledger.Entry{SourcePath: "/drop/a.jpg"})
	if err == nil {
		t.Fatal("expected error for empty identity")
	}
}

func TestOpenRejectsNonPositiveCapacity(t *testing.T) {
	_, err := ledger.Open(filepath.Join(t.TempDir(), "history.db"), 0)
	if err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestProcessedAtRoundTrips(t *testing.T) {
	led := openLedger(t, 10)
	ctx := context.Background()

	ts := time.Date(2024, time.May, 2, 8, 30, 15, 0, time.UTC)
	entry := entryFor(1)
	entry.ProcessedAt = ts
	if err := led.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := led.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if !entries[0].ProcessedAt.Equal(ts) {
		t.Fatalf("timestamp mangled: %s != %s", entries[0].ProcessedAt, ts)
	}
}

package ledger

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/storage"
)

const testLimit = 45000

func newTestLedger(t *testing.T) (*Ledger, *storage.Memory, *clock.Fake) {
	t.Helper()
	store := storage.NewMemory()
	fake := clock.NewFake(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	return New(store, fake, nil, testLimit, "device-local"), store, fake
}

func TestLedger_RecordAndStats(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 20000)
	ledger.RecordUsage(ctx, 20000)

	stats := ledger.Stats(ctx)
	if stats.CharsUsed != 40000 {
		t.Errorf("Expected 40000 chars used, got %d", stats.CharsUsed)
	}
	if stats.CharsRemaining != 5000 {
		t.Errorf("Expected 5000 chars remaining, got %d", stats.CharsRemaining)
	}
	if stats.RequestCount != 2 {
		t.Errorf("Expected 2 requests, got %d", stats.RequestCount)
	}
	if math.Abs(stats.PercentUsed-40000.0/45000.0) > 1e-9 {
		t.Errorf("Unexpected percent used: %v", stats.PercentUsed)
	}
	if !stats.NearLimit {
		t.Error("Expected NearLimit at 88.9%")
	}
	if stats.Critical {
		t.Error("Did not expect Critical at 88.9%")
	}
}

func TestLedger_CanUseChars(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 40000)

	if !ledger.CanUseChars(ctx, 5000) {
		t.Error("Expected exactly-fitting batch to be usable")
	}
	if ledger.CanUseChars(ctx, 6000) {
		t.Error("Expected over-quota batch to be rejected")
	}

	// CanUseChars must not mutate.
	if got := ledger.Stats(ctx).CharsUsed; got != 40000 {
		t.Errorf("CanUseChars mutated usage: %d", got)
	}
}

func TestLedger_DayRollover(t *testing.T) {
	ledger, _, fake := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 44000)
	if got := ledger.Stats(ctx).CharsUsed; got != 44000 {
		t.Fatalf("Expected 44000 before rollover, got %d", got)
	}

	// Cross UTC midnight; yesterday's snapshot is logically absent no
	// matter how large it was.
	fake.Advance(24 * time.Hour)

	stats := ledger.Stats(ctx)
	if stats.CharsUsed != 0 {
		t.Errorf("Expected zero usage after rollover, got %d", stats.CharsUsed)
	}
	if stats.RequestCount != 0 {
		t.Errorf("Expected zero requests after rollover, got %d", stats.RequestCount)
	}
	if !ledger.CanUseChars(ctx, testLimit) {
		t.Error("Expected full quota available after rollover")
	}

	// A write after rollover constructs a new snapshot from scratch.
	ledger.RecordUsage(ctx, 100)
	stats = ledger.Stats(ctx)
	if stats.CharsUsed != 100 || stats.RequestCount != 1 {
		t.Errorf("Expected fresh snapshot after rollover write, got %+v", stats)
	}
}

func TestLedger_RolloverIsReadSideOnly(t *testing.T) {
	ledger, store, fake := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 1234)
	fake.Advance(24 * time.Hour)

	// Reading across the boundary must not rewrite the stored snapshot.
	ledger.Stats(ctx)

	data, ok, _ := store.Get(ctx, "usage/device-local")
	if !ok {
		t.Fatal("Expected stored snapshot to remain")
	}
	snapshot, err := DecodeStored(data)
	if err != nil {
		t.Fatalf("Stored snapshot unreadable: %v", err)
	}
	if snapshot.Day != "2026-08-25" || snapshot.CharsUsed != 1234 {
		t.Errorf("Stale snapshot was mutated in place: %+v", snapshot)
	}
}

func TestLedger_IdentityIsolation(t *testing.T) {
	store := storage.NewMemory()
	fake := clock.NewFake(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ledgerA := New(store, fake, nil, testLimit, "user:aaa")
	ledgerB := New(store, fake, nil, testLimit, "user:bbb")

	ledgerA.RecordUsage(ctx, 30000)

	if got := ledgerB.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Usage under identity A leaked into B: %d", got)
	}
	if got := ledgerA.Stats(ctx).CharsUsed; got != 30000 {
		t.Errorf("Expected 30000 under identity A, got %d", got)
	}
}

func TestLedger_SetIdentitySwitchesKey(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 10000)
	ledger.SetIdentity("user:ccc")

	// No migration between identities.
	if got := ledger.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Expected zero usage under new identity, got %d", got)
	}

	ledger.SetIdentity("device-local")
	if got := ledger.Stats(ctx).CharsUsed; got != 10000 {
		t.Errorf("Expected original usage restored, got %d", got)
	}
}

func TestLedger_MalformedSnapshotTreatedAsAbsent(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	cases := map[string]string{
		"corrupt json": `{"day": "2026-08-2`,
		"negative":     `{"day":"2026-08-25","chars_used":-5}`,
		"bad day":      `{"day":"someday","chars_used":10}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store.Set(ctx, "usage/device-local", []byte(raw))

			if got := ledger.Stats(ctx).CharsUsed; got != 0 {
				t.Errorf("Expected malformed snapshot to read as zero, got %d", got)
			}

			// Recording over a malformed snapshot starts fresh.
			ledger.RecordUsage(ctx, 50)
			if got := ledger.Stats(ctx).CharsUsed; got != 50 {
				t.Errorf("Expected fresh accounting after malformed snapshot, got %d", got)
			}
			ledger.Reset(ctx)
		})
	}
}

// failingStore wraps Memory and fails all writes.
type failingStore struct {
	*storage.Memory
	failReads bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return fmt.Errorf("disk on fire")
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failReads {
		return nil, false, fmt.Errorf("disk on fire")
	}
	return f.Memory.Get(ctx, key)
}

func TestLedger_StoreWriteFailureIsSwallowed(t *testing.T) {
	store := &failingStore{Memory: storage.NewMemory()}
	fake := clock.NewFake(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	ledger := New(store, fake, nil, testLimit, "device-local")
	ctx := context.Background()

	// Must not panic or surface the failure.
	ledger.RecordUsage(ctx, 1000)

	// The write was dropped, so usage under-counts to zero.
	if got := ledger.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Expected dropped write to under-count, got %d", got)
	}
}

func TestLedger_StoreReadFailureFallsBackToZero(t *testing.T) {
	store := &failingStore{Memory: storage.NewMemory(), failReads: true}
	fake := clock.NewFake(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	ledger := New(store, fake, nil, testLimit, "device-local")
	ctx := context.Background()

	stats := ledger.Stats(ctx)
	if stats.CharsUsed != 0 || stats.CharsRemaining != testLimit {
		t.Errorf("Expected synthesized zero snapshot on read failure, got %+v", stats)
	}
	if !ledger.CanUseChars(ctx, testLimit) {
		t.Error("Read failure must not block the consumer")
	}
}

func TestLedger_Reset(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.RecordUsage(ctx, 30000)
	ledger.Reset(ctx)

	stats := ledger.Stats(ctx)
	if stats.CharsUsed != 0 || stats.RequestCount != 0 {
		t.Errorf("Expected zeroed snapshot after reset, got %+v", stats)
	}
}

func TestLedger_NegativeCountPanics(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for negative character count")
		}
	}()
	ledger.RecordUsage(context.Background(), -1)
}

func TestNew_RejectsBadParameters(t *testing.T) {
	store := storage.NewMemory()

	t.Run("zero limit", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic")
			}
		}()
		New(store, nil, nil, 0, "device-local")
	})

	t.Run("empty identity", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic")
			}
		}()
		New(store, nil, nil, testLimit, "")
	})
}

package admission

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"glossa-hq/rosetta/pkg/admission/identity"
	"glossa-hq/rosetta/pkg/admission/policy"
	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/storage"
)

func newTestGate(t *testing.T, cfg Config) (*Gate, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC))
	if cfg.Store == nil {
		cfg.Store = storage.NewMemory()
	}
	cfg.Clock = fake

	gate, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}
	return gate, fake
}

func TestGate_RequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error when store is missing")
	}
}

func TestGate_RejectsBadLimits(t *testing.T) {
	_, err := New(Config{
		Store:  storage.NewMemory(),
		Limits: Limits{BucketCapacity: -1, RefillRate: 2, DailyLimit: 1000},
	})
	if err == nil {
		t.Error("Expected error for negative capacity")
	}
}

func TestGate_DefaultsToDeviceIdentity(t *testing.T) {
	gate, _ := newTestGate(t, Config{})

	id := gate.Identity()
	if id.Kind != identity.KindDevice {
		t.Errorf("Expected device identity, got %s", id.Kind)
	}
}

func TestGate_TokenIdentity(t *testing.T) {
	gate, _ := newTestGate(t, Config{
		TokenSource: identity.StaticTokenSource("caller-token"),
	})

	id := gate.Identity()
	if id.Kind != identity.KindUser {
		t.Errorf("Expected user identity, got %s", id.Kind)
	}
	if strings.Contains(id.Key, "caller-token") {
		t.Error("Tracking key leaks the raw token")
	}
}

func TestGate_AdmitRecordStats(t *testing.T) {
	gate, _ := newTestGate(t, Config{})
	ctx := context.Background()

	decision := gate.Admit(ctx, []int{20000, 20000})
	if !decision.Allowed {
		t.Fatalf("Expected admission, got: %s", decision.Reason)
	}

	gate.RecordUsage(ctx, 20000)
	gate.RecordUsage(ctx, 20000)

	stats := gate.Stats(ctx)
	if stats.CharsUsed != 40000 || stats.CharsRemaining != 5000 {
		t.Fatalf("Unexpected stats: %+v", stats)
	}
	if !stats.NearLimit || stats.Critical {
		t.Errorf("Expected near-limit only at 88.9%%: %+v", stats)
	}

	// The next batch no longer fits.
	decision = gate.Admit(ctx, []int{6000})
	if decision.Allowed {
		t.Error("Expected rejection once quota nearly exhausted")
	}
	if got := gate.Stats(ctx).CharsUsed; got != 40000 {
		t.Errorf("Rejection mutated usage: %d", got)
	}
}

func TestGate_ThrottlePacesCalls(t *testing.T) {
	gate, fake := newTestGate(t, Config{})
	ctx := context.Background()

	// Burst through the full capacity without suspending.
	for i := 0; i < 10; i++ {
		if err := gate.Throttle(ctx); err != nil {
			t.Fatalf("Throttle %d failed: %v", i, err)
		}
	}
	if gate.Bucket().CanConsume(1) {
		t.Error("Expected bucket drained after burst")
	}

	// The 11th call suspends until a token refills (0.5s at 2/sec).
	done := make(chan error, 1)
	go func() {
		done <- gate.Throttle(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("Throttle returned before refill: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	fake.Advance(500 * time.Millisecond)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Throttle failed after refill: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Throttle did not resume after refill")
	}
}

func TestGate_QuotaRollsOverAtMidnight(t *testing.T) {
	gate, fake := newTestGate(t, Config{})
	ctx := context.Background()

	gate.RecordUsage(ctx, 44000)
	if gate.Admit(ctx, []int{2000}).Allowed {
		t.Fatal("Expected rejection just under the limit")
	}

	// 08:00 -> next midnight is 16h away.
	if got := gate.TimeUntilReset(); got != 16*time.Hour {
		t.Errorf("Expected 16h until reset, got %v", got)
	}

	fake.Advance(16 * time.Hour)

	if !gate.Admit(ctx, []int{2000}).Allowed {
		t.Error("Expected admission after day rollover")
	}
	if got := gate.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Expected zero usage after rollover, got %d", got)
	}
}

func TestGate_SharedStoreSeparateIdentities(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()

	gateA, _ := newTestGate(t, Config{
		Store:       store,
		TokenSource: identity.StaticTokenSource("token-a"),
	})
	gateB, _ := newTestGate(t, Config{
		Store:       store,
		TokenSource: identity.StaticTokenSource("token-b"),
	})

	gateA.RecordUsage(ctx, 30000)

	if got := gateB.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Usage leaked between identities: %d", got)
	}
}

func TestGate_MetricsRecorded(t *testing.T) {
	registry := prometheus.NewRegistry()
	gate, _ := newTestGate(t, Config{Metrics: NewMetrics(registry)})
	ctx := context.Background()

	gate.Admit(ctx, []int{1000})
	gate.Admit(ctx, []int{50000}) // rejected
	gate.RecordUsage(ctx, 1000)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
	}
	for _, name := range []string{
		"rosetta_admission_checks_total",
		"rosetta_admission_rejections_total",
		"rosetta_usage_chars_recorded_total",
		"rosetta_usage_percent",
	} {
		if !found[name] {
			t.Errorf("Expected metric %s to be registered", name)
		}
	}
}

func TestGate_Reset(t *testing.T) {
	gate, _ := newTestGate(t, Config{})
	ctx := context.Background()

	gate.RecordUsage(ctx, 30000)
	gate.Throttle(ctx)

	gate.Reset(ctx)

	if got := gate.Stats(ctx).CharsUsed; got != 0 {
		t.Errorf("Expected zero usage after reset, got %d", got)
	}
	if got := gate.Bucket().Available(); got != DefaultLimits.BucketCapacity {
		t.Errorf("Expected full bucket after reset, got %v", got)
	}
}

func TestGate_CriticalAdmissionLevel(t *testing.T) {
	gate, _ := newTestGate(t, Config{})
	ctx := context.Background()

	gate.RecordUsage(ctx, 42000)

	decision := gate.Admit(ctx, []int{2000})
	if !decision.Allowed {
		t.Fatalf("Expected critical admission, got rejection: %s", decision.Reason)
	}
	if decision.Level != policy.LevelCritical {
		t.Errorf("Expected critical level, got %s", decision.Level)
	}
}

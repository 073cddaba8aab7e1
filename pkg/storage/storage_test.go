package storage

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
)

// backends returns one of each Store implementation for table-driven tests.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "rosetta.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			if err := store.Set(ctx, "usage/device-local", []byte(`{"day":"2026-08-25"}`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			value, ok, err := store.Get(ctx, "usage/device-local")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok {
				t.Fatal("Expected key to exist")
			}
			if string(value) != `{"day":"2026-08-25"}` {
				t.Errorf("Unexpected value: %s", value)
			}

			// Overwrite replaces the previous value.
			if err := store.Set(ctx, "usage/device-local", []byte(`{"day":"2026-08-26"}`)); err != nil {
				t.Fatalf("Overwrite failed: %v", err)
			}
			value, _, _ = store.Get(ctx, "usage/device-local")
			if string(value) != `{"day":"2026-08-26"}` {
				t.Errorf("Expected overwritten value, got %s", value)
			}
		})
	}
}

func TestStore_AbsentKey(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			value, ok, err := store.Get(ctx, "usage/missing")
			if err != nil {
				t.Fatalf("Get of absent key returned error: %v", err)
			}
			if ok {
				t.Error("Expected absent key")
			}
			if value != nil {
				t.Errorf("Expected nil value for absent key, got %v", value)
			}

			// Deleting an absent key is a no-op.
			if err := store.Delete(ctx, "usage/missing"); err != nil {
				t.Errorf("Delete of absent key returned error: %v", err)
			}
		})
	}
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			if _, _, err := store.Get(ctx, ""); err == nil {
				t.Error("Expected error for empty key on Get")
			}
			if err := store.Set(ctx, "", []byte("x")); err == nil {
				t.Error("Expected error for empty key on Set")
			}
		})
	}
}

func TestStore_KeysPrefix(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			seed := map[string]string{
				"usage/device-local": "a",
				"usage/user:abc123":  "b",
				"identity/device-id": "c",
			}
			for key, value := range seed {
				if err := store.Set(ctx, key, []byte(value)); err != nil {
					t.Fatalf("Set %q failed: %v", key, err)
				}
			}

			keys, err := store.Keys(ctx, "usage/")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			sort.Strings(keys)

			want := []string{"usage/device-local", "usage/user:abc123"}
			if len(keys) != len(want) {
				t.Fatalf("Expected %d keys, got %d: %v", len(want), len(keys), keys)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Errorf("Key %d: expected %q, got %q", i, want[i], keys[i])
				}
			}
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rosetta.db")

	store, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.Set(ctx, "usage/user:abc", []byte("snapshot")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "usage/user:abc")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !ok || string(value) != "snapshot" {
		t.Errorf("Expected persisted snapshot, got ok=%v value=%s", ok, value)
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	defer store.Close()

	original := []byte("abc")
	if err := store.Set(ctx, "k", original); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	original[0] = 'x'

	value, _, _ := store.Get(ctx, "k")
	if string(value) != "abc" {
		t.Errorf("Stored value was mutated through caller slice: %s", value)
	}

	value[0] = 'y'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Stored value was mutated through returned slice: %s", again)
	}
}

package blobtest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
)

// Run exercises a minimal compliance suite against a blob.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) blob.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique prefix so shared databases do not collide between runs
	prefix := "bt-" + uuid.New().String() + "_"
	k1, k2, k3 := prefix+"2025-01-05", prefix+"2025-01-06", prefix+"2025-01-07"

	// Missing key
	if _, err := s.Get(ctx, k1); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// Set / Get
	if err := s.Set(ctx, k1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, k1)
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("Get: got=%q err=%v", got, err)
	}

	// Overwrite
	if err := s.Set(ctx, k1, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if got, _ := s.Get(ctx, k1); string(got) != `{"a":2}` {
		t.Fatalf("Get after overwrite: %q", got)
	}

	// Returned slices must not alias stored data
	got[0] = 'X'
	if again, _ := s.Get(ctx, k1); string(again) != `{"a":2}` {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}

	// Batch writes
	if b, ok := s.(blob.Batcher); ok {
		if err := b.SetMany(ctx, map[string][]byte{k2: []byte("two"), k3: []byte("three")}); err != nil {
			t.Fatalf("SetMany: %v", err)
		}
	} else {
		_ = s.Set(ctx, k2, []byte("two"))
		_ = s.Set(ctx, k3, []byte("three"))
	}
	if got, err := s.Get(ctx, k3); err != nil || string(got) != "three" {
		t.Fatalf("Get after batch: got=%q err=%v", got, err)
	}

	// List by prefix
	keys, err := s.List(ctx, prefix)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{k1, k2, k3}, keys); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
	if keys, err := s.List(ctx, prefix+"2025-01-06"); err != nil || len(keys) != 1 {
		t.Fatalf("List narrow: keys=%v err=%v", keys, err)
	}

	// Remove, including a key that does not exist
	if err := s.Remove(ctx, k2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, k2); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Get after remove: want ErrNotFound, got %v", err)
	}
	if err := s.Remove(ctx, prefix+"missing"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}

	// Cleanup
	for _, k := range []string{k1, k3} {
		_ = s.Remove(ctx, k)
	}
}

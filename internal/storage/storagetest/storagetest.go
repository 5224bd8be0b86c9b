// Package storagetest holds the behaviour every storage.Store must satisfy.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/rossyflor/pos-admin/internal/storage"
)

// Run exercises s against the storage.Store contract.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "session-a", storage.KeyToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("expected missing key to report ok=false")
		}
	})

	t.Run("set get overwrite", func(t *testing.T) {
		if err := s.Set(ctx, "session-a", storage.KeyToken, "first"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "session-a", storage.KeyToken, "second"); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		v, ok, err := s.Get(ctx, "session-a", storage.KeyToken)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if v != "second" {
			t.Fatalf("expected overwritten value, got %q", v)
		}
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		if err := s.Set(ctx, "session-b", storage.KeyUser, `{"username":"flor"}`); err != nil {
			t.Fatalf("set: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "session-a", storage.KeyUser); ok {
			t.Fatal("value leaked across namespaces")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, "session-a", storage.KeyToken); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "session-a", storage.KeyToken); ok {
			t.Fatal("expected key to be gone after delete")
		}
		if err := s.Delete(ctx, "session-a", storage.KeyToken); err != nil {
			t.Fatalf("deleting a missing key should not fail: %v", err)
		}
	})

	t.Run("empty namespace", func(t *testing.T) {
		if err := s.Set(ctx, "  ", storage.KeyToken, "x"); !errors.Is(err, storage.ErrEmptyNamespace) {
			t.Fatalf("expected ErrEmptyNamespace, got %v", err)
		}
	})
}

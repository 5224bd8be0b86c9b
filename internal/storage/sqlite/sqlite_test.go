package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rossyflor/pos-admin/internal/storage"
	"github.com/rossyflor/pos-admin/internal/storage/storagetest"
)

func TestSQLiteStorageContract(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	storagetest.Run(t, s)
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "session-x", storage.KeyToken, "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "session-x", storage.KeyToken)
	if err != nil || !ok || v != "persisted" {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", v, ok, err)
	}
}

package postgres

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

func TestStoreIntegration_DocumentLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	if _, err := store.Read(docstore.KeyProducts); !errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Write(docstore.KeyProducts, []byte(`[{"productId":"p1"}]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Write(docstore.KeyProducts, []byte(`[{"productId":"p2"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	raw, err := store.Read(docstore.KeyProducts)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != `[{"productId": "p2"}]` {
		t.Fatalf("unexpected document: %s", raw)
	}

	if err := store.Delete(docstore.KeyProducts); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(docstore.KeyProducts); err != nil {
		t.Fatalf("delete of missing key should be a no-op: %v", err)
	}
	if _, err := store.Read(docstore.KeyProducts); !errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestStoreIntegration_ThroughDocstore(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	docs := docstore.New(store)

	if err := docs.Set(docstore.KeyProductsMigrated, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	var migrated bool
	if !docs.Get(docstore.KeyProductsMigrated, &migrated) || !migrated {
		t.Fatal("expected migrated flag to round-trip")
	}
	if err := docs.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestStore_NilGuards(t *testing.T) {
	var store *Store
	if _, err := store.Read("k"); err == nil {
		t.Fatal("expected error for nil store Read")
	}
	if err := store.Write("k", []byte("1")); err == nil {
		t.Fatal("expected error for nil store Write")
	}
	if err := store.Delete("k"); err == nil {
		t.Fatal("expected error for nil store Delete")
	}
	if err := store.Ping(); err == nil {
		t.Fatal("expected error for nil store Ping")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close on nil store should be a no-op: %v", err)
	}
}

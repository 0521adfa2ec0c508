package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()

	addr := os.Getenv("AGRO_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, err := Open(ctx, Config{Addr: addr, Prefix: "agromarket-test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Skipf("redis is not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackendIntegration_ReadWriteDelete(t *testing.T) {
	b := openTestBackend(t)

	if _, err := b.Read(docstore.KeyOrders); !errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := b.Write(docstore.KeyOrders, []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := b.Read(docstore.KeyOrders)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("unexpected value: %s", raw)
	}
	if err := b.Delete(docstore.KeyOrders); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Read(docstore.KeyOrders); !errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
	if err := b.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpen_RequiresAddr(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

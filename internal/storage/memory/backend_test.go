package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

func TestBackend_ReadWriteDelete(t *testing.T) {
	b := NewBackend()

	if _, err := b.Read("missing"); !errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	value := []byte(`{"a":1}`)
	if err := b.Write("doc", value); err != nil {
		t.Fatalf("write: %v", err)
	}
	value[0] = 'X'

	got, err := b.Read("doc")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value was aliased: %s", got)
	}

	got[0] = 'Y'
	again, _ := b.Read("doc")
	if string(again) != `{"a":1}` {
		t.Fatalf("read returned aliased slice: %s", again)
	}

	if err := b.Delete("doc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.Delete("doc"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty backend, got %d docs", b.Len())
	}
}

func TestBackend_PingClose(t *testing.T) {
	b := NewBackend()
	if err := b.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

// relationExists сообщает, есть ли в схеме таблица или индекс с таким именем.
func relationExists(ctx context.Context, t *testing.T, store *Store, name string) bool {
	t.Helper()

	var exists bool
	if err := store.DB().QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists); err != nil {
		t.Fatalf("lookup relation %s: %v", name, err)
	}
	return exists
}

func TestMigrator_DocumentsSchemaLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	steps := []struct {
		name        string
		apply       func() error
		wantVersion int64
		wantTable   bool
		wantIndex   bool
	}{
		{name: "reset", apply: func() error { return nil }},
		{name: "up one", apply: func() error { return store.MigrateUp(ctx, 1) }, wantVersion: 1, wantTable: true},
		{name: "up rest", apply: func() error { return store.MigrateUp(ctx, 0) }, wantVersion: 2, wantTable: true, wantIndex: true},
		{name: "up again", apply: func() error { return store.MigrateUp(ctx, 0) }, wantVersion: 2, wantTable: true, wantIndex: true},
		{name: "down index", apply: func() error { return store.MigrateDown(ctx, 1) }, wantVersion: 1, wantTable: true},
		{name: "down default", apply: func() error { return store.MigrateDown(ctx, 0) }, wantVersion: 0},
		{name: "down on empty", apply: func() error { return store.MigrateDown(ctx, 1) }, wantVersion: 0},
	}

	for _, step := range steps {
		if err := step.apply(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}

		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			t.Fatalf("%s: status: %v", step.name, err)
		}
		if version != step.wantVersion || int64(count) != step.wantVersion {
			t.Fatalf("%s: version=%d applied=%d, want %d", step.name, version, count, step.wantVersion)
		}
		if got := relationExists(ctx, t, store, "documents"); got != step.wantTable {
			t.Fatalf("%s: documents table exists=%v, want %v", step.name, got, step.wantTable)
		}
		if got := relationExists(ctx, t, store, "idx_documents_updated_at"); got != step.wantIndex {
			t.Fatalf("%s: updated_at index exists=%v, want %v", step.name, got, step.wantIndex)
		}
	}
}

func TestMigrator_DocumentsSurviveIndexRollback(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.Write(docstore.KeyProductsMigrated, []byte(`true`)); err != nil {
		t.Fatalf("write flag: %v", err)
	}

	// 0002 только добавляет индекс: откат и повторное применение не трогают данные.
	if err := store.MigrateDown(ctx, 1); err != nil {
		t.Fatalf("rollback index: %v", err)
	}
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("reapply index: %v", err)
	}

	raw, err := store.Read(docstore.KeyProductsMigrated)
	if err != nil {
		t.Fatalf("read flag: %v", err)
	}
	if string(raw) != "true" {
		t.Fatalf("unexpected flag document: %s", raw)
	}

	// Без таблицы чтение — сбой хранилища, а не отсутствующий ключ.
	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_ = store.MigrateUp(cleanupCtx, 0)
	})

	if _, err := store.Read(docstore.KeyProductsMigrated); err == nil || errors.Is(err, docstore.ErrKeyNotFound) {
		t.Fatalf("expected a storage error without the documents table, got %v", err)
	}
}

func TestMigrator_RejectsUnusableStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var nilStore *Store
	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("nil store: MigrateUp must fail")
	}
	if err := nilStore.MigrateDown(ctx, 1); err == nil {
		t.Fatal("nil store: MigrateDown must fail")
	}
	if _, _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("nil store: MigrationStatus must fail")
	}
	if err := (&Store{}).migrate(ctx, migrationUp, 0); err == nil {
		t.Fatal("store without a connection must fail")
	}

	store := openRawPostgresStoreForIntegrationTest(t)
	if err := store.migrate(ctx, migrationDirection("sideways"), 0); err == nil {
		t.Fatal("unknown direction must fail")
	}
}

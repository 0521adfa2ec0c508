// Package file содержит backend хранилища документов в одном JSON-файле.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

// Backend держит все документы в памяти и после каждой записи
// переписывает файл целиком через временный файл и rename.
type Backend struct {
	mu   sync.RWMutex
	path string
	docs map[string]json.RawMessage
}

var _ docstore.Backend = (*Backend)(nil)

// Open загружает файл path; отсутствующий файл означает пустое хранилище.
func Open(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("file backend: path is required")
	}

	b := &Backend{path: path, docs: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(raw) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(raw, &b.docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return b, nil
}

// Path возвращает путь к файлу хранилища.
func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) Read(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	raw, ok := b.docs[key]
	if !ok {
		return nil, docstore.ErrKeyNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (b *Backend) Write(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("file backend: value for %s is not valid JSON", key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, existed := b.docs[key]
	b.docs[key] = append(json.RawMessage(nil), value...)
	if err := b.flushLocked(); err != nil {
		if existed {
			b.docs[key] = prev
		} else {
			delete(b.docs, key)
		}
		return err
	}
	return nil
}

func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, existed := b.docs[key]
	if !existed {
		return nil
	}
	delete(b.docs, key)
	if err := b.flushLocked(); err != nil {
		b.docs[key] = prev
		return err
	}
	return nil
}

// Ping проверяет, что каталог файла доступен для записи.
func (b *Backend) Ping() error {
	info, err := os.Stat(filepath.Dir(b.path))
	if err != nil {
		return fmt.Errorf("file backend: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("file backend: %s is not a directory", filepath.Dir(b.path))
	}
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) flushLocked() error {
	raw, err := json.MarshalIndent(b.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

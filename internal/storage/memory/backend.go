// Package memory содержит in-memory backend хранилища документов.
// Данные живут до завершения процесса; используется в тестах и для режима memory.
package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

// Backend хранит документы в map под RWMutex.
type Backend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ docstore.Backend = (*Backend)(nil)

// NewBackend создаёт пустой in-memory backend.
func NewBackend() *Backend {
	return &Backend{docs: make(map[string][]byte)}
}

// Read возвращает копию документа.
func (b *Backend) Read(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	raw, ok := b.docs[key]
	if !ok {
		return nil, docstore.ErrKeyNotFound
	}
	return append([]byte(nil), raw...), nil
}

// Write сохраняет копию значения.
func (b *Backend) Write(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[key] = append([]byte(nil), value...)
	return nil
}

// Delete удаляет документ, если он есть.
func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.docs, key)
	return nil
}

// Len возвращает количество хранимых документов.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func (b *Backend) Ping() error  { return nil }
func (b *Backend) Close() error { return nil }

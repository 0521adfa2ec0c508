// Package outbox хранит события рынка в документе omiddle_outbox и
// ретранслирует их во внешний брокер.
package outbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

const (
	statusPending = "pending"
	statusFailed  = "failed"
)

type record struct {
	Message   domain.OutboxMessage `json:"message"`
	Status    string               `json:"status"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Repository — outbox поверх хранилища документов. Отправленные записи
// удаляются, неотправленные после всех попыток помечаются failed.
type Repository struct {
	mu    sync.Mutex
	store *docstore.Store
	now   func() time.Time
}

var _ domain.OutboxRepository = (*Repository)(nil)

// NewRepository создаёт outbox поверх store.
func NewRepository(store *docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

func (r *Repository) load() []record {
	var records []record
	if !r.store.Get(docstore.KeyOutbox, &records) {
		return []record{}
	}
	return records
}

// read читает записи для перезаписи; сбой чтения не маскируется пустым списком.
func (r *Repository) read() ([]record, error) {
	var records []record
	if _, err := r.store.Load(docstore.KeyOutbox, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Enqueue сохраняет событие со статусом pending.
func (r *Repository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}

	records, err := r.read()
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	records = append(records, record{Message: msg, Status: statusPending, UpdatedAt: now})
	if err := r.store.Set(docstore.KeyOutbox, records); err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает до limit pending-сообщений в порядке записи.
func (r *Repository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0)
	for _, rec := range r.load() {
		if rec.Status != statusPending {
			continue
		}
		result = append(result, rec.Message)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats возвращает размер backlog и время самого старого pending-сообщения.
func (r *Repository) Stats() (domain.OutboxStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.OutboxStats
	for _, rec := range r.load() {
		if rec.Status != statusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.Message.CreatedAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.Message.CreatedAt
		}
	}
	return stats, nil
}

// MarkSent удаляет опубликованное сообщение.
func (r *Repository) MarkSent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].Message.ID == id {
			records = append(records[:i], records[i+1:]...)
			return r.store.Set(docstore.KeyOutbox, records)
		}
	}
	return fmt.Errorf("outbox message %s %w", id, domain.ErrNotFound)
}

// MarkFailed помечает сообщение как неотправленное.
func (r *Repository) MarkFailed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].Message.ID == id {
			records[i].Status = statusFailed
			records[i].UpdatedAt = r.now().UTC()
			return r.store.Set(docstore.KeyOutbox, records)
		}
	}
	return fmt.Errorf("outbox message %s %w", id, domain.ErrNotFound)
}

// Failed возвращает сообщения, которые не удалось опубликовать.
func (r *Repository) Failed() []domain.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.OutboxMessage, 0)
	for _, rec := range r.load() {
		if rec.Status == statusFailed {
			result = append(result, rec.Message)
		}
	}
	return result
}

// Requeue возвращает failed-сообщения в pending. Возвращает их количество.
func (r *Repository) Requeue() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return 0, err
	}
	count := 0
	now := r.now().UTC()
	for i := range records {
		if records[i].Status == statusFailed {
			records[i].Status = statusPending
			records[i].UpdatedAt = now
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	if err := r.store.Set(docstore.KeyOutbox, records); err != nil {
		return 0, err
	}
	return count, nil
}

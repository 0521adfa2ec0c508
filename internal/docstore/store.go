// Package docstore реализует синхронное хранилище JSON-документов по ключу
// поверх подключаемого байтового backend-а (память, файл, Redis, PostgreSQL).
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/metrics"
)

// ErrKeyNotFound возвращается backend-ом, когда документа с таким ключом нет.
var ErrKeyNotFound = errors.New("docstore: key not found")

// Backend хранит сырые байты документов. Реализации должны быть безопасны
// для конкурентного использования.
type Backend interface {
	// Read возвращает ErrKeyNotFound, если ключа нет.
	Read(key string) ([]byte, error)
	Write(key string, value []byte) error
	// Delete отсутствующего ключа не считается ошибкой.
	Delete(key string) error
	Ping() error
	Close() error
}

// Store кодирует значения в JSON и скрывает сбои чтения от вызывающего кода.
type Store struct {
	backend Backend
	logger  *log.Entry
	metrics *metrics.MarketMetrics
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задаёт логгер хранилища.
func WithLogger(logger *log.Entry) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает учёт операций в метриках.
func WithMetrics(m *metrics.MarketMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New создаёт хранилище поверх backend-а.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log.WithField("component", "docstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get читает документ key в dst. Возвращает false, если документа нет,
// backend недоступен или JSON не декодируется; причина только логируется.
// Подходит только для чистого чтения: путь read-modify-write должен
// использовать Load, чтобы не перезаписать документ, который не удалось прочитать.
func (s *Store) Get(key string, dst any) bool {
	found, err := s.Load(key, dst)
	return found && err == nil
}

// Load читает документ key в dst и отличает отсутствие документа от сбоя.
// Отсутствующий ключ даёт (false, nil); сбой backend-а или декодирования
// даёт ошибку, обёрнутую в domain.ErrStorage.
func (s *Store) Load(key string, dst any) (bool, error) {
	raw, err := s.backend.Read(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.metrics.RecordStorageOperation("get", "miss")
			return false, nil
		}
		s.metrics.RecordStorageOperation("get", "error")
		s.logger.WithError(err).WithField("key", key).Warn("failed to read document")
		return false, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.metrics.RecordStorageOperation("get", "error")
		s.logger.WithError(err).WithField("key", key).Warn("failed to decode document")
		return false, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, key, err)
	}

	s.metrics.RecordStorageOperation("get", "ok")
	return true, nil
}

// Set кодирует value и записывает документ целиком.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		s.metrics.RecordStorageOperation("set", "error")
		s.logger.WithError(err).WithField("key", key).Error("failed to encode document")
		return fmt.Errorf("%w: encode %s: %v", domain.ErrStorage, key, err)
	}

	if err := s.backend.Write(key, raw); err != nil {
		s.metrics.RecordStorageOperation("set", "error")
		s.logger.WithError(err).WithField("key", key).Error("failed to write document")
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, key, err)
	}

	s.metrics.RecordStorageOperation("set", "ok")
	return nil
}

// Remove удаляет документ.
func (s *Store) Remove(key string) error {
	if err := s.backend.Delete(key); err != nil {
		s.metrics.RecordStorageOperation("remove", "error")
		s.logger.WithError(err).WithField("key", key).Error("failed to remove document")
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorage, key, err)
	}

	s.metrics.RecordStorageOperation("remove", "ok")
	return nil
}

// Ping проверяет доступность backend-а.
func (s *Store) Ping() error {
	return s.backend.Ping()
}

// Close освобождает ресурсы backend-а.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Package redis содержит backend хранилища документов поверх Redis.
// Каждый документ хранится строковым значением под ключом prefix+key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
)

const defaultOpTimeout = 3 * time.Second

// Config задаёт подключение к Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Backend реализует docstore.Backend через go-redis.
type Backend struct {
	client    *goredis.Client
	prefix    string
	opTimeout time.Duration
}

var _ docstore.Backend = (*Backend)(nil)

// Open создаёт клиента и проверяет доступность сервера.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis backend: address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	b := NewWithClient(client, cfg.Prefix)

	pingCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return b, nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(client *goredis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix, opTimeout: defaultOpTimeout}
}

func (b *Backend) key(key string) string {
	return b.prefix + key
}

func (b *Backend) Read(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.opTimeout)
	defer cancel()

	raw, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, docstore.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (b *Backend) Write(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.opTimeout)
	defer cancel()

	if err := b.client.Set(ctx, b.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.opTimeout)
	defer cancel()

	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.opTimeout)
	defer cancel()
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	return b.client.Close()
}

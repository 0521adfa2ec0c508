package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/metrics"
	"github.com/vladislavdragonenkov/agromarket/internal/service/marketplace"
	"github.com/vladislavdragonenkov/agromarket/internal/service/outbox"
	"github.com/vladislavdragonenkov/agromarket/internal/service/registry"
	"github.com/vladislavdragonenkov/agromarket/internal/service/session"
	"github.com/vladislavdragonenkov/agromarket/internal/storage/file"
	"github.com/vladislavdragonenkov/agromarket/internal/storage/memory"
	"github.com/vladislavdragonenkov/agromarket/internal/storage/postgres"
	"github.com/vladislavdragonenkov/agromarket/internal/storage/redis"
)

// Dependencies содержит все зависимости рынка поверх одного хранилища.
type Dependencies struct {
	Store    *docstore.Store
	Metrics  *metrics.MarketMetrics
	Registry *registry.Registry
	Session  *session.Session
	Outbox   *outbox.Repository
	Market   *marketplace.Marketplace
	Logger   *log.Entry
}

// NewDependencies открывает backend по cfg.StorageDriver и собирает сервисы.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	marketMetrics := metrics.NewMarketMetrics()
	store := docstore.New(backend,
		docstore.WithLogger(logger.WithField("component", "docstore")),
		docstore.WithMetrics(marketMetrics),
	)

	users := registry.New(store, logger.WithField("component", "registry"))
	events := outbox.NewRepository(store)
	market := marketplace.New(store,
		marketplace.WithLogger(logger),
		marketplace.WithMetrics(marketMetrics),
		marketplace.WithEvents(events),
		marketplace.WithProfiles(users),
	)

	return &Dependencies{
		Store:    store,
		Metrics:  marketMetrics,
		Registry: users,
		Session:  session.New(store),
		Outbox:   events,
		Market:   market,
		Logger:   logger,
	}, nil
}

// Close освобождает backend.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

func openBackend(ctx context.Context, cfg Config, logger *log.Entry) (docstore.Backend, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Warn("using in-memory storage: data is lost on restart")
		return memory.NewBackend(), nil
	case "", StorageDriverFile:
		backend, err := file.Open(cfg.StorageFile)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.WithField("path", backend.Path()).Info("using file storage")
		return backend, nil
	case StorageDriverRedis:
		backend, err := redis.Open(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("using redis storage")
		return backend, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires AGRO_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

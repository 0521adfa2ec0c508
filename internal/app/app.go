// Package app собирает зависимости рынка и запускает демон: сверку остатков,
// ретрансляцию событий и HTTP-эндпоинты метрик и здоровья.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/health"
	"github.com/vladislavdragonenkov/agromarket/internal/seed"
	"github.com/vladislavdragonenkov/agromarket/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает демон и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	if err := prepareMarket(deps, cfg); err != nil {
		return err
	}

	healthHandler := newHealthHandler(deps)
	srv, addr, err := startMetricsServer(cfg.MetricsAddr, healthHandler, logger)
	if err != nil {
		return err
	}
	logger.WithField("addr", addr.String()).Info("metrics and health endpoints are up")

	var wg sync.WaitGroup

	producer, err := initKafkaProducer(cfg.Brokers(), logger)
	if err == nil && producer != nil {
		worker := newRelayWorker(deps, cfg, producer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		deps.Market.Reconciler.Run(ctx, cfg.ReconcileInterval)
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping background workers")

	wg.Wait()
	shutdownHTTP(srv, logger)
	closeKafka(producer, logger)

	return ctx.Err()
}

// prepareMarket выполняет стартовую миграцию и полную сверку остатков.
func prepareMarket(deps *Dependencies, cfg Config) error {
	if cfg.SeedOnStart {
		result, err := deps.Market.Migrator.EnsureMigrated(seed.Default{})
		if err != nil {
			return err
		}
		deps.Logger.WithFields(log.Fields{
			"already_migrated": result.AlreadyMigrated,
			"skipped":          result.Skipped,
			"products":         result.Products,
			"opening_orders":   result.OpeningOrders,
		}).Info("seed migration checked")
	}

	report, err := deps.Market.Reconciler.Reconcile()
	if err != nil {
		deps.Logger.WithError(err).Warn("startup reconciliation failed")
		return nil
	}
	deps.Logger.WithFields(log.Fields{
		"checked": report.Checked,
		"healed":  len(report.Healed),
	}).Info("startup reconciliation finished")
	return nil
}

func newHealthHandler(deps *Dependencies) *health.Handler {
	handler := health.NewHandler(version.GetVersion())
	handler.RegisterChecker("storage", health.NewSimpleChecker("storage", deps.Store.Ping))
	handler.RegisterChecker("stock", health.NewDriftChecker("stock", func() int {
		return len(deps.Market.Reconciler.Check())
	}))
	return handler
}

// startMetricsServer слушает addr и отдаёт /metrics вместе с health-эндпоинтами.
func startMetricsServer(addr string, healthHandler *health.Handler, logger *log.Entry) (*http.Server, net.Addr, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	healthHandler.Register(mux)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	return srv, lis.Addr(), nil
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}

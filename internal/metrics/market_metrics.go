package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа в оформлении заказа для label reason.
const (
	RejectValidation        = "validation"
	RejectProductNotFound   = "product_not_found"
	RejectInsufficientStock = "insufficient_stock"
	RejectStorage           = "storage"
)

// MarketMetrics содержит метрики каталога, журнала заказов и хранилища.
// Все методы безопасны для nil-получателя: компоненты без метрик просто их не пишут.
type MarketMetrics struct {
	ordersCreated  prometheus.Counter
	ordersRejected *prometheus.CounterVec
	unitsSold      prometheus.Counter

	stockOutOfSync     prometheus.Counter
	reconcileRuns      *prometheus.CounterVec
	reconciledProducts prometheus.Counter
	storageOperations  *prometheus.CounterVec
	productsInCatalog  prometheus.Gauge
	outboxEventsQueued prometheus.Counter
}

// NewMarketMetrics создаёт метрики в глобальном registry.
func NewMarketMetrics() *MarketMetrics {
	return NewMarketMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMarketMetricsWithRegisterer создаёт метрики в указанном registry (тесты, встраивание).
func NewMarketMetricsWithRegisterer(registerer prometheus.Registerer) *MarketMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MarketMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "agromarket_orders_created_total",
			Help: "Total number of orders appended to the ledger",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "agromarket_orders_rejected_total",
			Help: "Total number of order requests rejected, by reason",
		}, []string{"reason"}),
		unitsSold: registerCounter(registerer, prometheus.CounterOpts{
			Name: "agromarket_units_sold_total",
			Help: "Total number of units sold through the ledger",
		}),
		stockOutOfSync: registerCounter(registerer, prometheus.CounterOpts{
			Name: "agromarket_stock_out_of_sync_total",
			Help: "Orders recorded whose stock adjustment failed and awaits reconciliation",
		}),
		reconcileRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "agromarket_reconcile_runs_total",
			Help: "Reconciliation runs grouped by result",
		}, []string{"result"}),
		reconciledProducts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "agromarket_reconciled_products_total",
			Help: "Products whose stock was rewritten from the ledger",
		}),
		storageOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "agromarket_storage_operations_total",
			Help: "Document store operations grouped by operation and result",
		}, []string{"op", "result"}),
		productsInCatalog: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "agromarket_products_total",
			Help: "Number of products currently in the catalog",
		}),
		outboxEventsQueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "agromarket_outbox_events_total",
			Help: "Market events enqueued into the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated учитывает заказ и проданные по нему единицы.
func (m *MarketMetrics) RecordOrderCreated(quantity int64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.unitsSold.Add(float64(quantity))
}

// RecordOrderRejected учитывает отказ с указанной причиной.
func (m *MarketMetrics) RecordOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordStockOutOfSync учитывает заказ, остаток по которому не списался.
func (m *MarketMetrics) RecordStockOutOfSync() {
	if m == nil {
		return
	}
	m.stockOutOfSync.Inc()
}

// RecordReconcileRun учитывает прогон сверки: result = clean|healed|failed.
func (m *MarketMetrics) RecordReconcileRun(result string, healed int) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(result).Inc()
	m.reconciledProducts.Add(float64(healed))
}

// RecordStorageOperation учитывает операцию с хранилищем: op = get|set|remove, result = ok|miss|error.
func (m *MarketMetrics) RecordStorageOperation(op, result string) {
	if m == nil {
		return
	}
	m.storageOperations.WithLabelValues(op, result).Inc()
}

// SetProductsInCatalog выставляет текущий размер каталога.
func (m *MarketMetrics) SetProductsInCatalog(count int) {
	if m == nil {
		return
	}
	m.productsInCatalog.Set(float64(count))
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *MarketMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEventsQueued.Inc()
}

// Package marketplace содержит каталог товаров, журнал заказов, расчёт
// статистики, сверку остатков и одноразовую миграцию стартовых данных.
//
// Все компоненты работают поверх одного docstore.Store и делят один мьютекс:
// любое чтение-изменение-запись документов каталога и журнала выполняется
// целиком под ним. Порядок записи фиксирован: сначала журнал, потом каталог.
package marketplace

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/metrics"
)

// EventRecorder принимает события рынка для последующей публикации (outbox).
type EventRecorder interface {
	Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error)
}

// ProfileStore — реестр профилей продавцов.
type ProfileStore interface {
	FindByMobile(mobile string) (domain.User, error)
	Save(user domain.User) (domain.User, error)
	List() []domain.User
}

// Options задаёт зависимости Marketplace.
type Options struct {
	Logger   *log.Entry
	Metrics  *metrics.MarketMetrics
	Events   EventRecorder
	Profiles ProfileStore
	Now      func() time.Time
	Suffix   func() string
}

// Option настраивает Marketplace.
type Option func(*Options)

// WithLogger задаёт базовый логгер; компоненты добавляют к нему поле component.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает метрики.
func WithMetrics(m *metrics.MarketMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithEvents включает запись событий рынка.
func WithEvents(events EventRecorder) Option {
	return func(opts *Options) {
		opts.Events = events
	}
}

// WithProfiles подключает реестр продавцов (нужен для LegacyUser и миграции).
func WithProfiles(profiles ProfileStore) Option {
	return func(opts *Options) {
		opts.Profiles = profiles
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// WithSuffixSource подменяет генератор случайной части идентификаторов.
func WithSuffixSource(suffix func() string) Option {
	return func(opts *Options) {
		opts.Suffix = suffix
	}
}

// Marketplace объединяет компоненты, работающие над общими документами.
type Marketplace struct {
	Catalog    *Catalog
	Ledger     *Ledger
	Stats      *Stats
	Reconciler *Reconciler
	Migrator   *Migrator
}

// core — общее состояние компонентов.
type core struct {
	mu       sync.Mutex
	store    *docstore.Store
	logger   *log.Entry
	metrics  *metrics.MarketMetrics
	events   EventRecorder
	profiles ProfileStore
	now      func() time.Time
	suffix   func() string
}

// New собирает компоненты поверх store.
func New(store *docstore.Store, options ...Option) *Marketplace {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Suffix == nil {
		opts.Suffix = randomSuffix
	}

	c := &core{
		store:    store,
		logger:   logger,
		metrics:  opts.Metrics,
		events:   opts.Events,
		profiles: opts.Profiles,
		now:      opts.Now,
		suffix:   opts.Suffix,
	}

	m := &Marketplace{
		Catalog:    &Catalog{core: c, logger: logger.WithField("component", "catalog")},
		Ledger:     &Ledger{core: c, logger: logger.WithField("component", "ledger")},
		Stats:      &Stats{core: c},
		Reconciler: &Reconciler{core: c, logger: logger.WithField("component", "reconciler")},
		Migrator:   &Migrator{core: c, logger: logger.WithField("component", "seed-migration")},
	}
	m.Ledger.catalog = m.Catalog
	m.Ledger.reconciler = m.Reconciler
	return m
}

// loadProducts — чтение без записи: сбой хранилища даёт пустой каталог.
func (c *core) loadProducts() []domain.Product {
	var products []domain.Product
	if !c.store.Get(docstore.KeyProducts, &products) {
		return []domain.Product{}
	}
	return products
}

// readProducts читает каталог для последующей перезаписи. Сбой чтения
// возвращается как ошибка: записывать список, который не удалось прочитать, нельзя.
func (c *core) readProducts() ([]domain.Product, error) {
	var products []domain.Product
	found, err := c.store.Load(docstore.KeyProducts, &products)
	if err != nil {
		return nil, err
	}
	if !found || products == nil {
		return []domain.Product{}, nil
	}
	return products, nil
}

func (c *core) saveProducts(products []domain.Product) error {
	if err := c.store.Set(docstore.KeyProducts, products); err != nil {
		return err
	}
	c.metrics.SetProductsInCatalog(len(products))
	return nil
}

func (c *core) loadOrders() []domain.Order {
	var orders []domain.Order
	if !c.store.Get(docstore.KeyOrders, &orders) {
		return []domain.Order{}
	}
	return orders
}

// readOrders читает журнал для последующей перезаписи или сверки.
func (c *core) readOrders() ([]domain.Order, error) {
	var orders []domain.Order
	found, err := c.store.Load(docstore.KeyOrders, &orders)
	if err != nil {
		return nil, err
	}
	if !found || orders == nil {
		return []domain.Order{}, nil
	}
	return orders, nil
}

func (c *core) saveOrders(orders []domain.Order) error {
	return c.store.Set(docstore.KeyOrders, orders)
}

// emit записывает событие в outbox. Сбой записи события не влияет на результат операции.
func (c *core) emit(logger *log.Entry, eventType, aggregateType, aggregateID string, payload any) {
	if c.events == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).WithField("event_type", eventType).Warn("failed to encode market event")
		return
	}

	if _, err := c.events.Enqueue(domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     c.now().UTC(),
	}); err != nil {
		logger.WithError(err).WithFields(log.Fields{
			"event_type":   eventType,
			"aggregate_id": aggregateID,
		}).Warn("failed to enqueue market event")
		return
	}
	c.metrics.RecordOutboxEvent()
}

// newID строит идентификатор вида <prefix>-<unix-ms>-<9 символов>,
// перевыбирая случайную часть, пока taken сообщает о коллизии.
func (c *core) newID(prefix string, taken func(string) bool) string {
	ms := strconv.FormatInt(c.now().UnixMilli(), 10)
	for {
		id := prefix + "-" + ms + "-" + c.suffix()
		if !taken(id) {
			return id
		}
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

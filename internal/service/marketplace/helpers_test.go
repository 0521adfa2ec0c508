package marketplace

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/service/registry"
	"github.com/vladislavdragonenkov/agromarket/internal/storage/memory"
)

const testSeller = "9000000001"

var (
	testNow          = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	errInjectedWrite = errors.New("injected write failure")
	errInjectedRead  = errors.New("injected read failure")
)

// faultyBackend — in-memory backend, чтение и запись которого можно сломать по ключу.
type faultyBackend struct {
	*memory.Backend

	mu         sync.Mutex
	failWrites map[string]bool
	// failReads: сколько ближайших чтений ключа вернут ошибку; -1 — все.
	failReads  map[string]int
}

func newFaultyBackend() *faultyBackend {
	return &faultyBackend{
		Backend:    memory.NewBackend(),
		failWrites: make(map[string]bool),
		failReads:  make(map[string]int),
	}
}

func (b *faultyBackend) failWritesTo(key string, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites[key] = fail
}

func (b *faultyBackend) failReadsOf(key string, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failReads[key] = times
}

func (b *faultyBackend) Read(key string) ([]byte, error) {
	b.mu.Lock()
	left := b.failReads[key]
	if left > 0 {
		b.failReads[key] = left - 1
	}
	b.mu.Unlock()
	if left != 0 {
		return nil, errInjectedRead
	}
	return b.Backend.Read(key)
}

func (b *faultyBackend) Write(key string, value []byte) error {
	b.mu.Lock()
	fail := b.failWrites[key]
	b.mu.Unlock()
	if fail {
		return errInjectedWrite
	}
	return b.Backend.Write(key, value)
}

// raw возвращает байты документа в обход сбоев; nil, если ключа нет.
func (b *faultyBackend) raw(t *testing.T, key string) []byte {
	t.Helper()
	data, err := b.Backend.Read(key)
	if errors.Is(err, docstore.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("raw read %s: %v", key, err)
	}
	return append([]byte(nil), data...)
}

// recordedEvents собирает события вместо outbox.
type recordedEvents struct {
	mu       sync.Mutex
	messages []domain.OutboxMessage
	fail     bool
}

func (r *recordedEvents) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return domain.OutboxMessage{}, errors.New("outbox unavailable")
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.EventType)
	}
	return out
}

type fixture struct {
	market   *Marketplace
	backend  *faultyBackend
	store    *docstore.Store
	registry *registry.Registry
	events   *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel)
	logger := baseLogger.WithField("component", "test")

	backend := newFaultyBackend()
	store := docstore.New(backend, docstore.WithLogger(logger))
	reg := registry.New(store, logger)
	events := &recordedEvents{}

	var seq int
	market := New(store,
		WithLogger(logger),
		WithEvents(events),
		WithProfiles(reg),
		WithClock(func() time.Time { return testNow }),
		WithSuffixSource(func() string {
			seq++
			return fmt.Sprintf("s%08d", seq)
		}),
	)

	return &fixture{market: market, backend: backend, store: store, registry: reg, events: events}
}

// seedProduct добавляет товар p1 из сценария: продавец 9000000001, остаток 100/100, цена 10.
func (f *fixture) seedProduct(t *testing.T) domain.Product {
	t.Helper()

	p, err := f.market.Catalog.Add(domain.ProductDraft{
		SellerMobileNumber: testSeller,
		Name:               "Wheat Flour",
		Unit:               domain.UnitKilogram,
		PricePerUnit:       decimal.NewFromInt(10),
		InitialStock:       100,
		CurrentStock:       100,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (f *fixture) order(t *testing.T, productID string, qty int64) domain.Order {
	t.Helper()

	o, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         productID,
		QuantityOrdered:   qty,
	})
	if err != nil {
		t.Fatalf("create order of %d: %v", qty, err)
	}
	return o
}

func mustGet(t *testing.T, c *Catalog, productID string) domain.Product {
	t.Helper()
	p, err := c.Get(productID)
	if err != nil {
		t.Fatalf("get %s: %v", productID, err)
	}
	return p
}

package marketplace

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

func TestLedger_CreateOrderScenario(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	o := f.order(t, p.ProductID, 30)

	if !o.TotalPrice.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected total 300, got %s", o.TotalPrice)
	}
	if o.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", o.Status)
	}
	if o.SellerMobileNumber != testSeller || o.ProductName != "Wheat Flour" {
		t.Fatalf("order snapshot is wrong: %+v", o)
	}
	if !strings.HasPrefix(o.OrderID, "order-1772359200000-") {
		t.Fatalf("unexpected order id: %s", o.OrderID)
	}
	if !o.OrderDate.Equal(testNow) {
		t.Fatalf("unexpected order date: %s", o.OrderDate)
	}

	stored := mustGet(t, f.market.Catalog, p.ProductID)
	if stored.CurrentStock != 70 {
		t.Fatalf("expected stock 70, got %d", stored.CurrentStock)
	}
	if stored.UnitsSold != 30 {
		t.Fatalf("expected cached units sold 30, got %d", stored.UnitsSold)
	}
	if got := f.market.Ledger.UnitsSoldFor(p.ProductID); got != 30 {
		t.Fatalf("expected ledger units sold 30, got %d", got)
	}
	if got := f.market.Ledger.RevenueFor(p.ProductID); !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected revenue 300, got %s", got)
	}
}

func TestLedger_RejectsOrderAboveStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	_, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         p.ProductID,
		QuantityOrdered:   150,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if got := mustGet(t, f.market.Catalog, p.ProductID); got.CurrentStock != 100 {
		t.Fatalf("rejected order changed stock to %d", got.CurrentStock)
	}
	if n := len(f.market.Ledger.ListAll()); n != 0 {
		t.Fatalf("rejected order was recorded, ledger has %d", n)
	}
}

func TestLedger_SellingOutExactStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	f.order(t, p.ProductID, 100)
	got := mustGet(t, f.market.Catalog, p.ProductID)
	if got.CurrentStock != 0 || !got.IsSoldOut() {
		t.Fatalf("expected sold out product, got %+v", got)
	}

	_, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         p.ProductID,
		QuantityOrdered:   1,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock after sell-out, got %v", err)
	}
}

func TestLedger_StockInvariantHoldsAcrossOrders(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	for _, qty := range []int64{1, 7, 13, 29, 50} {
		_, err := f.market.Ledger.Create(domain.OrderDraft{
			BuyerMobileNumber: "9111111111",
			ProductID:         p.ProductID,
			QuantityOrdered:   qty,
		})
		got := mustGet(t, f.market.Catalog, p.ProductID)

		if got.CurrentStock < 0 || got.CurrentStock > got.InitialStock {
			t.Fatalf("stock out of bounds: %+v", got)
		}
		if err != nil {
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Fatalf("unexpected error for qty %d: %v", qty, err)
			}
			continue
		}
		if sold := f.market.Ledger.UnitsSoldFor(p.ProductID); got.InitialStock-got.CurrentStock != sold {
			t.Fatalf("initial-current=%d, ledger=%d", got.InitialStock-got.CurrentStock, sold)
		}
	}
}

func TestLedger_CreateValidation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	tests := []struct {
		name  string
		draft domain.OrderDraft
		want  error
	}{
		{name: "no buyer", draft: domain.OrderDraft{ProductID: p.ProductID, QuantityOrdered: 1}, want: domain.ErrBuyerRequired},
		{name: "zero quantity", draft: domain.OrderDraft{BuyerMobileNumber: "9111111111", ProductID: p.ProductID}, want: domain.ErrQuantityNotPositive},
		{name: "no product", draft: domain.OrderDraft{BuyerMobileNumber: "9111111111", QuantityOrdered: 1}, want: domain.ErrProductIDRequired},
		{name: "unknown product", draft: domain.OrderDraft{BuyerMobileNumber: "9111111111", ProductID: "prod-missing", QuantityOrdered: 1}, want: domain.ErrProductNotFound},
		{name: "wrong seller", draft: domain.OrderDraft{BuyerMobileNumber: "9111111111", SellerMobileNumber: "9000000009", ProductID: p.ProductID, QuantityOrdered: 1}, want: domain.ErrSellerMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.market.Ledger.Create(tt.draft); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := len(f.market.Ledger.ListAll()); n != 0 {
		t.Fatalf("rejected drafts were recorded: %d", n)
	}
}

func TestLedger_ExplicitPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)

	o, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         p.ProductID,
		QuantityOrdered:   4,
		PricePerUnit:      decimal.RequireFromString("9.5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !o.TotalPrice.Equal(decimal.NewFromInt(38)) {
		t.Fatalf("expected total 38, got %s", o.TotalPrice)
	}

	price := decimal.NewFromInt(99)
	if _, err := f.market.Catalog.Update(p.ProductID, domain.ProductPatch{PricePerUnit: &price}); err != nil {
		t.Fatalf("update price: %v", err)
	}
	stored, err := f.market.Ledger.Get(o.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !stored.PricePerUnit.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("order price must stay a snapshot, got %s", stored.PricePerUnit)
	}
}

func TestLedger_OrderWriteFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.backend.failWritesTo(docstore.KeyOrders, true)

	_, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         p.ProductID,
		QuantityOrdered:   10,
	})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if got := mustGet(t, f.market.Catalog, p.ProductID); got.CurrentStock != 100 {
		t.Fatalf("stock changed after failed ledger write: %d", got.CurrentStock)
	}
}

func TestLedger_StockWriteFailureKeepsOrderAndHeals(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.backend.failWritesTo(docstore.KeyProducts, true)

	o, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9111111111",
		ProductID:         p.ProductID,
		QuantityOrdered:   10,
	})
	if !errors.Is(err, domain.ErrStockOutOfSync) {
		t.Fatalf("expected ErrStockOutOfSync, got %v", err)
	}
	if o.OrderID == "" {
		t.Fatal("order must be returned together with ErrStockOutOfSync")
	}
	if _, err := f.market.Ledger.Get(o.OrderID); err != nil {
		t.Fatalf("order must be retained: %v", err)
	}

	drifts := f.market.Reconciler.Check()
	if len(drifts) != 1 || drifts[0].StoredStock != 100 || drifts[0].ExpectedStock != 90 {
		t.Fatalf("expected detectable drift 100 -> 90, got %+v", drifts)
	}

	f.backend.failWritesTo(docstore.KeyProducts, false)

	// Следующий заказ по товару сначала лениво сверяет остаток.
	f.order(t, p.ProductID, 5)
	got := mustGet(t, f.market.Catalog, p.ProductID)
	if got.CurrentStock != 85 || got.UnitsSold != 15 {
		t.Fatalf("expected healed stock 85 / sold 15, got %+v", got)
	}
	if len(f.market.Reconciler.Check()) != 0 {
		t.Fatal("drift must be gone after lazy reconciliation")
	}
}

func TestLedger_Queries(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	other, err := f.market.Catalog.Add(domain.ProductDraft{
		SellerMobileNumber: "9000000002",
		Name:               "Honey",
		Unit:               domain.UnitLiter,
		PricePerUnit:       decimal.NewFromInt(450),
		CurrentStock:       10,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	f.order(t, p.ProductID, 3)
	if _, err := f.market.Ledger.Create(domain.OrderDraft{
		BuyerMobileNumber: "9222222222",
		ProductID:         other.ProductID,
		QuantityOrdered:   2,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if n := len(f.market.Ledger.ListAll()); n != 2 {
		t.Fatalf("expected 2 orders, got %d", n)
	}
	if got := f.market.Ledger.ListBySeller(testSeller); len(got) != 1 || got[0].ProductID != p.ProductID {
		t.Fatalf("unexpected seller orders: %+v", got)
	}
	if got := f.market.Ledger.ListByBuyer("9222222222"); len(got) != 1 || got[0].ProductID != other.ProductID {
		t.Fatalf("unexpected buyer orders: %+v", got)
	}
	if got := f.market.Ledger.ListByProduct(other.ProductID); len(got) != 1 {
		t.Fatalf("unexpected product orders: %+v", got)
	}
	if got := f.market.Ledger.SellerUnitsSold("9000000002"); got != 2 {
		t.Fatalf("expected 2 units, got %d", got)
	}
	if got := f.market.Ledger.SellerRevenue("9000000002"); !got.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected revenue 900, got %s", got)
	}
	if _, err := f.market.Ledger.Get("order-missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestLedger_EventFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.events.fail = true

	f.order(t, p.ProductID, 1)
	if got := mustGet(t, f.market.Catalog, p.ProductID); got.CurrentStock != 99 {
		t.Fatalf("expected stock 99, got %d", got.CurrentStock)
	}
}

package marketplace

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

func TestStats_SellerStatsFromLedger(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.order(t, p.ProductID, 30)

	stats := f.market.Stats.SellerStats(testSeller)
	if stats.TotalProducts != 1 || stats.TotalUnitsSold != 30 || !stats.TotalRevenue.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected seller stats: %+v", stats)
	}
}

func TestStats_SellerStatsIsIdempotentAndReadOnly(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.order(t, p.ProductID, 12)

	before := f.backend.Len()
	eventsBefore := len(f.events.types())
	productsBefore := f.market.Catalog.ListAll()

	first := f.market.Stats.SellerStats(testSeller)
	second := f.market.Stats.SellerStats(testSeller)

	if first.TotalProducts != second.TotalProducts || first.TotalUnitsSold != second.TotalUnitsSold ||
		!first.TotalRevenue.Equal(second.TotalRevenue) {
		t.Fatalf("stats differ between calls: %+v vs %+v", first, second)
	}
	if f.backend.Len() != before || len(f.events.types()) != eventsBefore {
		t.Fatal("stats must not write anything")
	}
	if !reflect.DeepEqual(productsBefore, f.market.Catalog.ListAll()) {
		t.Fatal("stats changed the catalog")
	}
}

func TestStats_IgnoresStaleUnitsSoldCache(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.order(t, p.ProductID, 30)

	// Портим кэш напрямую в документе.
	products := f.market.Catalog.ListAll()
	products[0].UnitsSold = 999
	if err := f.market.Catalog.saveProducts(products); err != nil {
		t.Fatalf("corrupt cache: %v", err)
	}

	withStats, err := f.market.Stats.ProductStats(p.ProductID)
	if err != nil {
		t.Fatalf("product stats: %v", err)
	}
	if withStats.UnitsSold != 30 || !withStats.Revenue.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("stats must come from the ledger: %+v", withStats)
	}
	if withStats.IsSoldOut {
		t.Fatal("product with stock 70 is not sold out")
	}
	if _, err := f.market.Stats.ProductStats("prod-missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStats_DeletedProductKeepsOrders(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	o := f.order(t, p.ProductID, 10)

	if err := f.market.Catalog.Remove(p.ProductID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := f.market.Catalog.Get(p.ProductID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	orders := f.market.Ledger.ListBySeller(testSeller)
	if len(orders) != 1 || orders[0].OrderID != o.OrderID {
		t.Fatalf("orders of a deleted product must remain listed: %+v", orders)
	}

	stats := f.market.Stats.SellerStats(testSeller)
	if stats.TotalProducts != 0 || stats.TotalUnitsSold != 10 {
		t.Fatalf("unexpected stats after delete: %+v", stats)
	}
}

func TestStats_LegacyUserProjection(t *testing.T) {
	f := newFixture(t)
	if _, err := f.registry.Save(domain.User{ID: "user-1", Name: "Ash", MobileNumber: testSeller, Rating: 4.8}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	p := f.seedProduct(t)
	f.order(t, p.ProductID, 100)

	legacy, err := f.market.Stats.LegacyUser(testSeller)
	if err != nil {
		t.Fatalf("legacy user: %v", err)
	}
	if legacy.Name != "Ash" || legacy.TotalProductsSold != 100 || !legacy.TotalSalesAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected projection: %+v", legacy)
	}
	if len(legacy.Products) != 1 || !legacy.Products[0].IsSoldOut {
		t.Fatalf("unexpected projected products: %+v", legacy.Products)
	}

	if _, err := f.market.Stats.LegacyUser("9999999999"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var stored []domain.User
	if !f.store.Get(docstore.KeyUsers, &stored) || len(stored) != 1 {
		t.Fatalf("projection must not be persisted: %+v", stored)
	}
}

func TestStats_ProductsWithStats(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t)
	f.order(t, p.ProductID, 5)

	list := f.market.Stats.ProductsWithStats(testSeller)
	if len(list) != 1 || list[0].UnitsSold != 5 || !list[0].Revenue.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected products with stats: %+v", list)
	}
	if empty := f.market.Stats.ProductsWithStats("9999999999"); len(empty) != 0 {
		t.Fatalf("expected empty list, got %+v", empty)
	}
}

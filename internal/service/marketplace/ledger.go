package marketplace

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/metrics"
)

// Ledger — журнал заказов, только добавление. Единственный источник
// правды о проданных единицах и выручке и единственный путь к списанию остатка.
type Ledger struct {
	*core
	logger     *log.Entry
	catalog    *Catalog
	reconciler *Reconciler
}

// Create оформляет заказ.
//
// Заказ записывается в журнал до списания остатка. Если каталог или журнал
// не читается либо журнал не записывается, возвращается ErrStorage и ничего
// не меняется. Если заказ записан, а остаток списать не удалось, возвращаются
// заказ и ErrStockOutOfSync: расхождение устраняет Reconciler.
func (l *Ledger) Create(draft domain.OrderDraft) (domain.Order, error) {
	if err := draft.Validate(); err != nil {
		l.metrics.RecordOrderRejected(metrics.RejectValidation)
		return domain.Order{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.reconciler.reconcileProduct(draft.ProductID); err != nil {
		l.logger.WithError(err).WithField("product_id", draft.ProductID).Warn("lazy reconciliation failed")
	}

	products, err := l.readProducts()
	if err != nil {
		l.metrics.RecordOrderRejected(metrics.RejectStorage)
		return domain.Order{}, err
	}
	idx := indexOfProduct(products, draft.ProductID)
	if idx < 0 {
		l.metrics.RecordOrderRejected(metrics.RejectProductNotFound)
		return domain.Order{}, domain.ErrProductNotFound
	}
	product := products[idx]

	if draft.SellerMobileNumber != "" && draft.SellerMobileNumber != product.SellerMobileNumber {
		l.metrics.RecordOrderRejected(metrics.RejectValidation)
		return domain.Order{}, domain.ErrSellerMismatch
	}
	if draft.QuantityOrdered > product.CurrentStock {
		l.metrics.RecordOrderRejected(metrics.RejectInsufficientStock)
		l.logger.WithFields(log.Fields{
			"product_id": product.ProductID,
			"requested":  draft.QuantityOrdered,
			"available":  product.CurrentStock,
		}).Info("order rejected: insufficient stock")
		return domain.Order{}, fmt.Errorf("%w: product %s has %d, requested %d",
			domain.ErrInsufficientStock, product.ProductID, product.CurrentStock, draft.QuantityOrdered)
	}

	price := draft.PricePerUnit
	if !price.IsPositive() {
		price = product.PricePerUnit
	}

	orders, err := l.readOrders()
	if err != nil {
		l.metrics.RecordOrderRejected(metrics.RejectStorage)
		return domain.Order{}, err
	}
	order := domain.Order{
		OrderID: l.newID("order", func(id string) bool {
			return indexOfOrder(orders, id) >= 0
		}),
		BuyerMobileNumber:  draft.BuyerMobileNumber,
		SellerMobileNumber: product.SellerMobileNumber,
		ProductID:          product.ProductID,
		ProductName:        product.Name,
		QuantityOrdered:    draft.QuantityOrdered,
		PricePerUnit:       price,
		TotalPrice:         decimal.NewFromInt(draft.QuantityOrdered).Mul(price),
		OrderDate:          l.now().UTC(),
		Status:             domain.OrderStatusConfirmed,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		l.metrics.RecordOrderRejected(metrics.RejectValidation)
		return domain.Order{}, errors.Join(errs...)
	}

	// (a) журнал
	if err := l.saveOrders(append(orders, order)); err != nil {
		l.metrics.RecordOrderRejected(metrics.RejectStorage)
		return domain.Order{}, err
	}

	fields := log.Fields{
		"order_id":   order.OrderID,
		"product_id": order.ProductID,
		"seller":     order.SellerMobileNumber,
		"quantity":   order.QuantityOrdered,
	}
	l.metrics.RecordOrderCreated(order.QuantityOrdered)
	l.emit(l.logger, domain.EventOrderCreated, domain.AggregateOrder, order.OrderID, order)

	// (b) остаток
	if _, err := l.catalog.adjustStock(order.ProductID, -order.QuantityOrdered); err != nil {
		l.metrics.RecordStockOutOfSync()
		l.logger.WithError(err).WithFields(fields).Error("order recorded but stock was not adjusted")
		return order, fmt.Errorf("%w: order %s: %w", domain.ErrStockOutOfSync, order.OrderID, err)
	}

	l.logger.WithFields(fields).Info("order created")
	return order, nil
}

// Get возвращает заказ по идентификатору.
func (l *Ledger) Get(orderID string) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders := l.loadOrders()
	idx := indexOfOrder(orders, orderID)
	if idx < 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return orders[idx], nil
}

// ListAll возвращает все заказы в порядке оформления.
func (l *Ledger) ListAll() []domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadOrders()
}

func (l *Ledger) ListBySeller(seller string) []domain.Order {
	return l.filter(func(o domain.Order) bool { return o.SellerMobileNumber == seller })
}

func (l *Ledger) ListByBuyer(buyer string) []domain.Order {
	return l.filter(func(o domain.Order) bool { return o.BuyerMobileNumber == buyer })
}

func (l *Ledger) ListByProduct(productID string) []domain.Order {
	return l.filter(func(o domain.Order) bool { return o.ProductID == productID })
}

// UnitsSoldFor суммирует количество по всем заказам товара.
func (l *Ledger) UnitsSoldFor(productID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return unitsSoldFor(l.loadOrders(), productID)
}

// RevenueFor суммирует выручку по всем заказам товара.
func (l *Ledger) RevenueFor(productID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return revenueFor(l.loadOrders(), productID)
}

func (l *Ledger) SellerUnitsSold(seller string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sellerUnitsSold(l.loadOrders(), seller)
}

func (l *Ledger) SellerRevenue(seller string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sellerRevenue(l.loadOrders(), seller)
}

func (l *Ledger) filter(keep func(domain.Order) bool) []domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.Order, 0)
	for _, o := range l.loadOrders() {
		if keep(o) {
			result = append(result, o)
		}
	}
	return result
}

func indexOfOrder(orders []domain.Order, orderID string) int {
	for i := range orders {
		if orders[i].OrderID == orderID {
			return i
		}
	}
	return -1
}

// Суммы считаются по всем заказам независимо от статуса: переходов статусов нет.

func unitsSoldFor(orders []domain.Order, productID string) int64 {
	var total int64
	for _, o := range orders {
		if o.ProductID == productID {
			total += o.QuantityOrdered
		}
	}
	return total
}

func revenueFor(orders []domain.Order, productID string) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.ProductID == productID {
			total = total.Add(o.TotalPrice)
		}
	}
	return total
}

func sellerUnitsSold(orders []domain.Order, seller string) int64 {
	var total int64
	for _, o := range orders {
		if o.SellerMobileNumber == seller {
			total += o.QuantityOrdered
		}
	}
	return total
}

func sellerRevenue(orders []domain.Order, seller string) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.SellerMobileNumber == seller {
			total = total.Add(o.TotalPrice)
		}
	}
	return total
}

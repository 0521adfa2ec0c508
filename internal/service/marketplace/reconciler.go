package marketplace

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

// Результаты прогона сверки для метрик.
const (
	ReconcileClean  = "clean"
	ReconcileHealed = "healed"
	ReconcileFailed = "failed"
)

// Drift описывает расхождение товара с журналом заказов.
type Drift struct {
	ProductID       string `json:"productId"`
	StoredStock     int64  `json:"storedStock"`
	ExpectedStock   int64  `json:"expectedStock"`
	StoredUnitsSold int64  `json:"storedUnitsSold"`
	LedgerUnitsSold int64  `json:"ledgerUnitsSold"`
}

// Report — итог прогона сверки.
type Report struct {
	Checked int     `json:"checked"`
	Healed  []Drift `json:"healed"`
}

// Reconciler приводит остаток и кэш UnitsSold каждого товара к журналу:
// ожидаемый остаток = InitialStock - проданное, в пределах [0, InitialStock].
type Reconciler struct {
	*core
	logger *log.Entry
}

// Check возвращает расхождения, ничего не записывая.
func (r *Reconciler) Check() []Drift {
	r.mu.Lock()
	defer r.mu.Unlock()

	drifts := make([]Drift, 0)
	orders, products, err := r.readBoth()
	if err != nil {
		r.logger.WithError(err).Warn("drift check skipped: documents are unreadable")
		return drifts
	}
	for _, p := range products {
		if d, ok := driftOf(p, orders); ok {
			drifts = append(drifts, d)
		}
	}
	return drifts
}

// Reconcile сверяет все товары и переписывает расходящиеся.
func (r *Reconciler) Reconcile() (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, products, err := r.readBoth()
	if err != nil {
		r.metrics.RecordReconcileRun(ReconcileFailed, 0)
		return Report{Healed: []Drift{}}, err
	}
	report := Report{Checked: len(products), Healed: make([]Drift, 0)}

	for i, p := range products {
		d, ok := driftOf(p, orders)
		if !ok {
			continue
		}
		products[i].CurrentStock = d.ExpectedStock
		products[i].UnitsSold = d.LedgerUnitsSold
		report.Healed = append(report.Healed, d)
	}

	if len(report.Healed) == 0 {
		r.metrics.RecordReconcileRun(ReconcileClean, 0)
		return report, nil
	}

	if err := r.saveProducts(products); err != nil {
		r.metrics.RecordReconcileRun(ReconcileFailed, 0)
		r.logger.WithError(err).WithField("drifted", len(report.Healed)).Error("failed to persist reconciled products")
		return Report{Checked: report.Checked, Healed: []Drift{}}, err
	}

	r.metrics.RecordReconcileRun(ReconcileHealed, len(report.Healed))
	for _, d := range report.Healed {
		r.logDrift(d)
		r.emit(r.logger, domain.EventStockReconciled, domain.AggregateProduct, d.ProductID, d)
	}
	return report, nil
}

// ReconcileProduct сверяет один товар. Возвращает true, если товар был исправлен.
func (r *Reconciler) ReconcileProduct(productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reconcileProduct(productID)
}

// reconcileProduct вызывается под r.mu.
func (r *Reconciler) reconcileProduct(productID string) (bool, error) {
	orders, products, err := r.readBoth()
	if err != nil {
		r.metrics.RecordReconcileRun(ReconcileFailed, 0)
		return false, err
	}
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return false, nil
	}

	d, ok := driftOf(products[idx], orders)
	if !ok {
		return false, nil
	}

	products[idx].CurrentStock = d.ExpectedStock
	products[idx].UnitsSold = d.LedgerUnitsSold
	if err := r.saveProducts(products); err != nil {
		r.metrics.RecordReconcileRun(ReconcileFailed, 0)
		return false, err
	}

	r.metrics.RecordReconcileRun(ReconcileHealed, 1)
	r.logDrift(d)
	r.emit(r.logger, domain.EventStockReconciled, domain.AggregateProduct, d.ProductID, d)
	return true, nil
}

// Run периодически запускает полную сверку до отмены ctx.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.logger.Warn("periodic reconciliation is disabled: interval is not positive")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Reconcile(); err != nil {
				r.logger.WithError(err).Warn("periodic reconciliation failed")
			}
		}
	}
}

// readBoth читает журнал и каталог. Непрочитанный журнал нельзя считать
// пустым: это «вернуло» бы на склад всё проданное.
func (r *Reconciler) readBoth() ([]domain.Order, []domain.Product, error) {
	orders, err := r.readOrders()
	if err != nil {
		return nil, nil, err
	}
	products, err := r.readProducts()
	if err != nil {
		return nil, nil, err
	}
	return orders, products, nil
}

func (r *Reconciler) logDrift(d Drift) {
	r.logger.WithFields(log.Fields{
		"product_id":        d.ProductID,
		"stored_stock":      d.StoredStock,
		"expected_stock":    d.ExpectedStock,
		"stored_units_sold": d.StoredUnitsSold,
		"ledger_units_sold": d.LedgerUnitsSold,
	}).Warn("stock drift healed from ledger")
}

func driftOf(p domain.Product, orders []domain.Order) (Drift, bool) {
	sold := unitsSoldFor(orders, p.ProductID)

	expected := p.InitialStock - sold
	if expected < 0 {
		expected = 0
	}
	if expected > p.InitialStock {
		expected = p.InitialStock
	}

	if expected == p.CurrentStock && sold == p.UnitsSold {
		return Drift{}, false
	}
	return Drift{
		ProductID:       p.ProductID,
		StoredStock:     p.CurrentStock,
		ExpectedStock:   expected,
		StoredUnitsSold: p.UnitsSold,
		LedgerUnitsSold: sold,
	}, true
}

package marketplace

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/images"
	"github.com/vladislavdragonenkov/agromarket/internal/seed"
)

// LegacyImportBuyer — покупатель вступительных заказов, созданных миграцией.
const LegacyImportBuyer = "legacy-import"

// MigrationResult описывает итог EnsureMigrated.
type MigrationResult struct {
	// AlreadyMigrated — флаг миграции уже стоял, ничего не делалось.
	AlreadyMigrated bool `json:"alreadyMigrated"`
	// Skipped — каталог уже был непуст, выставлен только флаг.
	Skipped       bool `json:"skipped"`
	Profiles      int  `json:"profiles"`
	Products      int  `json:"products"`
	OpeningOrders int  `json:"openingOrders"`
}

// Migrator переносит стартовые данные старой модели «продавец с товарами»
// в плоский каталог и журнал. Выполняется один раз: повторный запуск после
// прерывания не дублирует заказы, потому что их идентификаторы детерминированы.
type Migrator struct {
	*core
	logger *log.Entry
}

// OpeningOrderID возвращает идентификатор вступительного заказа товара.
func OpeningOrderID(productID string) string {
	return "order-legacy-" + productID
}

// EnsureMigrated выполняет миграцию, если она ещё не выполнялась.
//
// Порядок записи: профили, вступительные заказы на уже проданные единицы,
// товары, флаг. Так инвариант «остаток = начальный - проданное по журналу»
// выполняется с первого чтения.
func (m *Migrator) EnsureMigrated(provider seed.Provider) (MigrationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var migrated bool
	found, err := m.store.Load(docstore.KeyProductsMigrated, &migrated)
	if err != nil {
		return MigrationResult{}, err
	}
	if found && migrated {
		return MigrationResult{AlreadyMigrated: true}, nil
	}

	existing, err := m.readProducts()
	if err != nil {
		return MigrationResult{}, err
	}
	if len(existing) > 0 {
		if err := m.store.Set(docstore.KeyProductsMigrated, true); err != nil {
			return MigrationResult{}, err
		}
		m.logger.WithField("products", len(existing)).Info("catalog already populated, marking migration as done")
		return MigrationResult{Skipped: true}, nil
	}

	orders, err := m.readOrders()
	if err != nil {
		return MigrationResult{}, err
	}

	sellers := provider.Sellers()
	var result MigrationResult

	if m.profiles != nil && len(m.profiles.List()) == 0 {
		for _, s := range sellers {
			if _, err := m.profiles.Save(s.Profile); err != nil {
				return MigrationResult{}, err
			}
			result.Profiles++
		}
	}

	products := make([]domain.Product, 0)
	for _, s := range sellers {
		for _, p := range s.Products {
			if p.SellerMobileNumber == "" {
				p.SellerMobileNumber = s.Profile.MobileNumber
			}
			if p.ImageURL == "" {
				p.ImageURL = images.URLFor(p.Name)
			}

			sold := p.InitialStock - p.CurrentStock
			if sold > 0 && indexOfOrder(orders, OpeningOrderID(p.ProductID)) < 0 {
				opening := openingOrder(p, sold)
				if errs := opening.ValidateInvariants(); len(errs) > 0 {
					return MigrationResult{}, fmt.Errorf("opening order for %s: %w", p.ProductID, errors.Join(errs...))
				}
				orders = append(orders, opening)
				result.OpeningOrders++
			}
			products = append(products, p)
		}
	}

	if result.OpeningOrders > 0 {
		if err := m.saveOrders(orders); err != nil {
			return MigrationResult{}, err
		}
	}

	for i := range products {
		products[i].UnitsSold = unitsSoldFor(orders, products[i].ProductID)
	}
	if err := m.saveProducts(products); err != nil {
		return MigrationResult{}, err
	}
	result.Products = len(products)

	if err := m.store.Set(docstore.KeyProductsMigrated, true); err != nil {
		return MigrationResult{}, err
	}

	m.logger.WithFields(log.Fields{
		"profiles":       result.Profiles,
		"products":       result.Products,
		"opening_orders": result.OpeningOrders,
	}).Info("seed migration completed")
	return result, nil
}

func openingOrder(p domain.Product, sold int64) domain.Order {
	date, err := time.Parse(domain.ProductDateLayout, p.CreatedDate)
	if err != nil {
		date = time.Unix(0, 0)
	}
	return domain.Order{
		OrderID:            OpeningOrderID(p.ProductID),
		BuyerMobileNumber:  LegacyImportBuyer,
		SellerMobileNumber: p.SellerMobileNumber,
		ProductID:          p.ProductID,
		ProductName:        p.Name,
		QuantityOrdered:    sold,
		PricePerUnit:       p.PricePerUnit,
		TotalPrice:         decimal.NewFromInt(sold).Mul(p.PricePerUnit),
		OrderDate:          date.UTC(),
		Status:             domain.OrderStatusDelivered,
	}
}

package marketplace

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/images"
)

// Catalog — плоский список товаров всех продавцов.
type Catalog struct {
	*core
	logger *log.Entry
}

// ListAll возвращает все товары в порядке добавления.
func (c *Catalog) ListAll() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loadProducts()
}

// ListBySeller возвращает товары продавца (точное совпадение номера).
func (c *Catalog) ListBySeller(seller string) []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	return filterBySeller(c.loadProducts(), seller)
}

// Get возвращает товар по идентификатору.
func (c *Catalog) Get(productID string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := c.loadProducts()
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return products[idx], nil
}

// Add создаёт товар с новым идентификатором.
func (c *Catalog) Add(draft domain.ProductDraft) (domain.Product, error) {
	product, err := c.productFromDraft(draft)
	if err != nil {
		c.logger.WithError(err).WithField("seller", draft.SellerMobileNumber).Debug("product draft rejected")
		return domain.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	products, err := c.readProducts()
	if err != nil {
		return domain.Product{}, err
	}
	product.ProductID = c.newID("prod", func(id string) bool {
		return indexOfProduct(products, id) >= 0
	})

	products = append(products, product)
	if err := c.saveProducts(products); err != nil {
		return domain.Product{}, err
	}

	c.logger.WithFields(log.Fields{
		"product_id": product.ProductID,
		"seller":     product.SellerMobileNumber,
	}).Info("product added")
	c.emit(c.logger, domain.EventProductCreated, domain.AggregateProduct, product.ProductID, product)
	return product, nil
}

func (c *Catalog) productFromDraft(draft domain.ProductDraft) (domain.Product, error) {
	initial := draft.InitialStock
	if initial == 0 {
		initial = draft.CurrentStock
	}
	created := draft.CreatedDate
	if created == "" {
		created = c.now().UTC().Format(domain.ProductDateLayout)
	}
	name := strings.TrimSpace(draft.Name)
	imageURL := draft.ImageURL
	if imageURL == "" {
		imageURL = images.URLFor(name)
	}

	product := domain.Product{
		SellerMobileNumber: draft.SellerMobileNumber,
		Name:               name,
		ImageURL:           imageURL,
		Unit:               draft.Unit,
		PricePerUnit:       draft.PricePerUnit,
		InitialStock:       initial,
		CurrentStock:       draft.CurrentStock,
		CreatedDate:        created,
	}

	errs := product.ValidateInvariants()
	if err := domain.ValidateMobileNumber(draft.SellerMobileNumber); err != nil {
		errs = append(errs, err)
	}
	return product, errors.Join(errs...)
}

// Update применяет патч из белого списка полей. Остаток, владелец и
// идентификатор патчем не меняются.
func (c *Catalog) Update(productID string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	products, err := c.readProducts()
	if err != nil {
		return domain.Product{}, err
	}
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}

	updated := patch.Apply(products[idx])
	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	products[idx] = updated
	if err := c.saveProducts(products); err != nil {
		return domain.Product{}, err
	}

	c.logger.WithField("product_id", productID).Info("product updated")
	c.emit(c.logger, domain.EventProductUpdated, domain.AggregateProduct, productID, updated)
	return updated, nil
}

// Remove удаляет товар из каталога. Заказы по нему остаются в журнале.
func (c *Catalog) Remove(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	products, err := c.readProducts()
	if err != nil {
		return err
	}
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return domain.ErrProductNotFound
	}

	removed := products[idx]
	products = append(products[:idx], products[idx+1:]...)
	if err := c.saveProducts(products); err != nil {
		return err
	}

	c.logger.WithField("product_id", productID).Info("product removed")
	c.emit(c.logger, domain.EventProductDeleted, domain.AggregateProduct, productID, removed)
	return nil
}

// adjustStock меняет остаток на delta и обновляет кэш UnitsSold из журнала.
// Вызывается только под c.mu из Ledger.Create.
func (c *Catalog) adjustStock(productID string, delta int64) (domain.Product, error) {
	products, err := c.readProducts()
	if err != nil {
		return domain.Product{}, err
	}
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}

	product := products[idx]
	next := product.CurrentStock + delta
	if next < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s has %d, requested %d",
			domain.ErrInsufficientStock, productID, product.CurrentStock, -delta)
	}
	if next > product.InitialStock {
		return domain.Product{}, domain.ErrStockAboveInitial
	}

	orders, err := c.readOrders()
	if err != nil {
		return domain.Product{}, err
	}
	product.CurrentStock = next
	product.UnitsSold = unitsSoldFor(orders, productID)
	products[idx] = product

	if err := c.saveProducts(products); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func indexOfProduct(products []domain.Product, productID string) int {
	for i := range products {
		if products[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func filterBySeller(products []domain.Product, seller string) []domain.Product {
	result := make([]domain.Product, 0)
	for _, p := range products {
		if p.SellerMobileNumber == seller {
			result = append(result, p)
		}
	}
	return result
}

package marketplace

import "github.com/vladislavdragonenkov/agromarket/internal/domain"

// Stats считает производные показатели. Проданные единицы и выручка всегда
// берутся из журнала заказов, а не из кэша UnitsSold в товаре.
// Методы не пишут в хранилище.
type Stats struct {
	*core
}

// SellerStats возвращает агрегаты для панели продавца.
func (s *Stats) SellerStats(seller string) domain.SellerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.loadOrders()
	return domain.SellerStats{
		TotalProducts:  len(filterBySeller(s.loadProducts(), seller)),
		TotalUnitsSold: sellerUnitsSold(orders, seller),
		TotalRevenue:   sellerRevenue(orders, seller),
	}
}

// ProductStats возвращает товар с показателями из журнала.
func (s *Stats) ProductStats(productID string) (domain.ProductWithStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadProducts()
	idx := indexOfProduct(products, productID)
	if idx < 0 {
		return domain.ProductWithStats{}, domain.ErrProductNotFound
	}
	return withStats(products[idx], s.loadOrders()), nil
}

// ProductsWithStats возвращает товары продавца с показателями.
func (s *Stats) ProductsWithStats(seller string) []domain.ProductWithStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.loadOrders()
	products := filterBySeller(s.loadProducts(), seller)
	result := make([]domain.ProductWithStats, 0, len(products))
	for _, p := range products {
		result = append(result, withStats(p, orders))
	}
	return result
}

// LegacyUser собирает проекцию «пользователь с товарами» из реестра,
// каталога и журнала. Результат нигде не сохраняется.
func (s *Stats) LegacyUser(mobile string) (domain.LegacyUser, error) {
	if s.profiles == nil {
		return domain.LegacyUser{}, domain.ErrUserNotFound
	}
	profile, err := s.profiles.FindByMobile(mobile)
	if err != nil {
		return domain.LegacyUser{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.loadOrders()
	owned := filterBySeller(s.loadProducts(), mobile)
	products := make([]domain.ProductWithStats, 0, len(owned))
	for _, p := range owned {
		products = append(products, withStats(p, orders))
	}

	return domain.LegacyUser{
		User:              profile,
		TotalProductsSold: sellerUnitsSold(orders, mobile),
		TotalSalesAmount:  sellerRevenue(orders, mobile),
		Products:          products,
	}, nil
}

func withStats(p domain.Product, orders []domain.Order) domain.ProductWithStats {
	p.UnitsSold = unitsSoldFor(orders, p.ProductID)
	return domain.ProductWithStats{
		Product:   p,
		Revenue:   revenueFor(orders, p.ProductID),
		IsSoldOut: p.IsSoldOut(),
	}
}

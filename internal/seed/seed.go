// Package seed содержит стартовый набор продавцов и их товаров для
// первичного заполнения пустого хранилища.
package seed

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
	"github.com/vladislavdragonenkov/agromarket/internal/images"
)

// Seller — профиль продавца вместе с товарами в формате старой модели,
// где товары встроены в пользователя.
type Seller struct {
	Profile  domain.User
	Products []domain.Product
}

// Provider отдаёт стартовые данные. Позволяет подменить набор в тестах.
type Provider interface {
	Sellers() []Seller
}

// Default — встроенный набор из шести продавцов.
type Default struct{}

// Sellers возвращает свежую копию встроенного набора.
func (Default) Sellers() []Seller {
	return Sellers()
}

// Static отдаёт заранее заданный набор продавцов.
type Static []Seller

func (s Static) Sellers() []Seller {
	out := make([]Seller, len(s))
	for i, seller := range s {
		out[i] = Seller{Profile: seller.Profile, Products: append([]domain.Product(nil), seller.Products...)}
	}
	return out
}

// Sellers возвращает встроенный набор продавцов. UnitsSold у товаров
// равен InitialStock - CurrentStock, как в исходных данных.
func Sellers() []Seller {
	return []Seller{
		{
			Profile: domain.User{
				ID:           "user-001",
				Name:         "Ash",
				Address:      "Village Kheda, Tehsil Merta, District Nagaur, Rajasthan - 341510",
				MobileNumber: "9876543210",
				Rating:       4.8,
			},
			Products: []domain.Product{
				product("prod-001", "9876543210", "Wheat Flour", "Wheat Flour", domain.UnitKilogram, 45, 300, 120, "2025-11-15"),
				product("prod-002", "9876543210", "Basmati Rice", "Basmati Rice", domain.UnitKilogram, 85, 850, 0, "2025-10-20"),
				product("prod-003", "9876543210", "Toor Dal (Pigeon Peas)", "Toor Dal", domain.UnitKilogram, 120, 145, 25, "2025-12-01"),
				product("prod-015", "9876543210", "Organic Honey", "Organic Honey", domain.UnitLiter, 450, 130, 45, "2025-11-28"),
			},
		},
		{
			Profile: domain.User{
				ID:           "user-002",
				Name:         "Arun",
				Address:      "Taluka Anand, District Kheda, Gujarat - 388001",
				MobileNumber: "9123456789",
				Rating:       4.6,
			},
			Products: []domain.Product{
				product("prod-004", "9123456789", "White Rice", "White Rice", domain.UnitKilogram, 65, 600, 150, "2025-11-01"),
				product("prod-005", "9123456789", "Sugar", "Sugar", domain.UnitKilogram, 55, 262, 180, "2025-10-10"),
			},
		},
		{
			Profile: domain.User{
				ID:           "user-003",
				Name:         "Tom",
				Address:      "Block Gola Gokaran Nath, District Lakhimpur Kheri, Uttar Pradesh - 262802",
				MobileNumber: "9988776655",
				Rating:       4.9,
			},
			Products: []domain.Product{
				product("prod-006", "9988776655", "Moong Dal (Green Gram)", "Moong Dal", domain.UnitKilogram, 130, 190, 95, "2025-09-15"),
				product("prod-007", "9988776655", "Chana Dal (Bengal Gram)", "Chana Dal", domain.UnitKilogram, 110, 385, 65, "2025-11-20"),
				product("prod-008", "9988776655", "Sona Masoori Rice", "Sona Masoori Rice", domain.UnitKilogram, 70, 1200, 0, "2025-12-05"),
				product("prod-016", "9988776655", "Turmeric Powder", "Turmeric Powder", domain.UnitKilogram, 280, 220, 55, "2025-12-03"),
			},
		},
		{
			Profile: domain.User{
				ID:           "user-004",
				Name:         "Dhinesh",
				Address:      "Mandal Medak, District Medak, Telangana - 502110",
				MobileNumber: "9445566778",
				Rating:       4.7,
			},
			Products: []domain.Product{
				product("prod-009", "9445566778", "Cooking Oil (Sunflower)", "Cooking Oil", domain.UnitLiter, 180, 465, 85, "2025-10-25"),
				product("prod-010", "9445566778", "Urad Dal (Black Gram)", "Urad Dal", domain.UnitKilogram, 140, 252, 42, "2025-11-10"),
				product("prod-017", "9445566778", "Jaggery (Gur)", "Jaggery", domain.UnitKilogram, 75, 430, 190, "2025-11-18"),
			},
		},
		{
			Profile: domain.User{
				ID:           "user-005",
				Name:         "Sam",
				Address:      "Tehsil Malkapur, District Buldana, Maharashtra - 443101",
				MobileNumber: "9001122334",
				Rating:       4.5,
			},
			Products: []domain.Product{
				product("prod-011", "9001122334", "Iodized Salt", "Iodized Salt", domain.UnitKilogram, 25, 375, 280, "2025-11-05"),
				product("prod-012", "9001122334", "Masoor Dal (Red Lentils)", "Masoor Dal", domain.UnitKilogram, 95, 400, 120, "2025-12-01"),
				product("prod-018", "9001122334", "Organic Cane Sugar", "Organic Cane Sugar", domain.UnitKilogram, 65, 405, 210, "2025-11-22"),
			},
		},
		{
			Profile: domain.User{
				ID:           "user-006",
				Name:         "Raj",
				Address:      "Block Saran, District Chapra, Bihar - 841301",
				MobileNumber: "9667788990",
				Rating:       4.4,
			},
			Products: []domain.Product{
				product("prod-013", "9667788990", "Jowar Flour (Sorghum)", "Jowar Flour", domain.UnitKilogram, 50, 515, 95, "2025-10-18"),
				product("prod-014", "9667788990", "Rajma (Kidney Beans)", "Rajma", domain.UnitKilogram, 115, 190, 35, "2025-11-25"),
			},
		},
	}
}

func product(id, seller, name, imageName string, unit domain.Unit, price, initial, current int64, created string) domain.Product {
	return domain.Product{
		ProductID:          id,
		SellerMobileNumber: seller,
		Name:               name,
		ImageURL:           images.URLFor(imageName),
		Unit:               unit,
		PricePerUnit:       decimal.NewFromInt(price),
		InitialStock:       initial,
		CurrentStock:       current,
		UnitsSold:          initial - current,
		CreatedDate:        created,
	}
}

package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// User — профиль продавца: идентичность и контакты без данных о товарах.
type User struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	MobileNumber string  `json:"mobileNumber"`
	Rating       float64 `json:"rating"`
}

// Validate проверяет обязательные поля профиля.
func (u User) Validate() error {
	var errs []error
	if strings.TrimSpace(u.ID) == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if err := ValidateMobileNumber(u.MobileNumber); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateMobileNumber требует ровно 10 цифр.
func ValidateMobileNumber(mobile string) error {
	if len(mobile) != 10 {
		return ErrMobileNumberInvalid
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return ErrMobileNumberInvalid
		}
	}
	return nil
}

// LegacyUser — проекция старого агрегата «пользователь с товарами».
// Строится по запросу из каталога и журнала и никогда не сохраняется.
type LegacyUser struct {
	User
	TotalProductsSold int64              `json:"totalProductsSold"`
	TotalSalesAmount  decimal.Decimal    `json:"totalSalesAmount"`
	Products          []ProductWithStats `json:"products"`
}

// SellerStats — агрегаты для карточек панели продавца.
type SellerStats struct {
	TotalProducts  int             `json:"totalProducts"`
	TotalUnitsSold int64           `json:"totalUnitsSold"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

// Role — роль аутентифицированного пользователя в сессии.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleConsumer Role = "consumer"
)

// IsValid сообщает, поддерживается ли роль.
func (r Role) IsValid() bool {
	return r == RoleFarmer || r == RoleConsumer
}

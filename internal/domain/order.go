package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа покупателя.
type OrderStatus string

const (
	// OrderStatusPending — заказ оформлен, но ещё не подтверждён.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ записан в журнал, остаток списан.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusDelivered — заказ передан покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid сообщает, известен ли статус.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order — неизменяемая запись журнала о покупке.
// Название товара и цена — снимки на момент оформления.
type Order struct {
	OrderID            string          `json:"orderId"`
	BuyerMobileNumber  string          `json:"buyerMobileNumber"`
	SellerMobileNumber string          `json:"sellerMobileNumber"`
	ProductID          string          `json:"productId"`
	ProductName        string          `json:"productName"`
	QuantityOrdered    int64           `json:"quantityOrdered"`
	PricePerUnit       decimal.Decimal `json:"pricePerUnit"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	OrderDate          time.Time       `json:"orderDate"`
	Status             OrderStatus     `json:"status"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if o.QuantityOrdered <= 0 {
		errs = append(errs, ErrQuantityNotPositive)
	}
	if !o.PricePerUnit.IsPositive() {
		errs = append(errs, ErrPriceNotPositive)
	}
	if !o.Status.IsValid() {
		errs = append(errs, ErrOrderStatusInvalid)
	}

	// Сверяем итог с qty * price.
	if !o.TotalPrice.Equal(decimal.NewFromInt(o.QuantityOrdered).Mul(o.PricePerUnit)) {
		errs = append(errs, ErrOrderTotalMismatch)
	}

	return errs
}

// OrderDraft — запрос покупателя на оформление заказа.
// SellerMobileNumber и ProductName необязательны: берутся из товара.
// Нулевая PricePerUnit означает «по текущей цене товара».
type OrderDraft struct {
	BuyerMobileNumber  string          `json:"buyerMobileNumber"`
	SellerMobileNumber string          `json:"sellerMobileNumber,omitempty"`
	ProductID          string          `json:"productId"`
	ProductName        string          `json:"productName,omitempty"`
	QuantityOrdered    int64           `json:"quantityOrdered"`
	PricePerUnit       decimal.Decimal `json:"pricePerUnit"`
}

// Validate проверяет поля запроса, не обращаясь к каталогу.
func (d OrderDraft) Validate() error {
	var errs []error
	if strings.TrimSpace(d.BuyerMobileNumber) == "" {
		errs = append(errs, ErrBuyerRequired)
	}
	if strings.TrimSpace(d.ProductID) == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if d.QuantityOrdered <= 0 {
		errs = append(errs, ErrQuantityNotPositive)
	}
	if d.PricePerUnit.IsNegative() {
		errs = append(errs, ErrPriceNotPositive)
	}
	return errors.Join(errs...)
}

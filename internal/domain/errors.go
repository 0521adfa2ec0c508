package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — общий родитель для всех ошибок «сущность не найдена».
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказа нет в журнале.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrUserNotFound возвращается, если продавец не зарегистрирован.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrValidation — общий родитель для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrFieldNotEditable — попытка изменить поле вне белого списка редактируемых.
	ErrFieldNotEditable = fmt.Errorf("%w: field is not editable", ErrValidation)

	ErrProductNameRequired = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrPriceNotPositive    = fmt.Errorf("%w: price per unit must be greater than zero", ErrValidation)
	ErrUnitInvalid         = fmt.Errorf("%w: unknown unit", ErrValidation)
	ErrStockNegative       = fmt.Errorf("%w: stock must be non-negative", ErrValidation)
	ErrStockAboveInitial   = fmt.Errorf("%w: current stock exceeds initial stock", ErrValidation)
	ErrMobileNumberInvalid = fmt.Errorf("%w: mobile number must contain exactly 10 digits", ErrValidation)
	ErrMobileNumberTaken   = fmt.Errorf("%w: mobile number is already registered", ErrValidation)
	ErrUserIDRequired      = fmt.Errorf("%w: user id is required", ErrValidation)
	ErrProductIDRequired   = fmt.Errorf("%w: product id is required", ErrValidation)
	ErrQuantityNotPositive = fmt.Errorf("%w: quantity ordered must be greater than zero", ErrValidation)
	ErrBuyerRequired       = fmt.Errorf("%w: buyer mobile number is required", ErrValidation)
	ErrSellerMismatch      = fmt.Errorf("%w: seller does not own the product", ErrValidation)
	ErrOrderTotalMismatch  = fmt.Errorf("%w: order total does not match quantity and price", ErrValidation)
	ErrOrderStatusInvalid  = fmt.Errorf("%w: unknown order status", ErrValidation)
	ErrRoleInvalid         = fmt.Errorf("%w: role must be farmer or consumer", ErrValidation)
	ErrEmptyPatch          = fmt.Errorf("%w: no editable fields supplied", ErrValidation)
	ErrPatchValueInvalid   = fmt.Errorf("%w: malformed field value", ErrValidation)

	// ErrInsufficientStock — запрошенное количество превышает текущий остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStorage — сбой чтения или записи документа в хранилище.
	ErrStorage = errors.New("storage failure")
	// ErrStockOutOfSync — заказ записан, но остаток товара не был уменьшен;
	// расхождение устраняется reconciler-ом.
	ErrStockOutOfSync = errors.New("order recorded but stock adjustment failed")
)

// IsNotFound проверяет, относится ли ошибка к семейству «не найдено».
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

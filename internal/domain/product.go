package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductDateLayout — формат даты создания товара (YYYY-MM-DD).
const ProductDateLayout = "2006-01-02"

// Product — товар продавца в плоском каталоге.
//
// ProductID и SellerMobileNumber неизменяемы после создания. InitialStock
// задаётся один раз и служит потолком для CurrentStock. UnitsSold — кэш,
// который обновляется из журнала заказов и никогда не считается первоисточником.
type Product struct {
	ProductID          string          `json:"productId"`
	SellerMobileNumber string          `json:"sellerMobileNumber"`
	Name               string          `json:"name"`
	ImageURL           string          `json:"imageUrl"`
	Unit               Unit            `json:"unit"`
	PricePerUnit       decimal.Decimal `json:"pricePerUnit"`
	InitialStock       int64           `json:"initialStock"`
	CurrentStock       int64           `json:"currentStock"`
	UnitsSold          int64           `json:"unitsSold"`
	CreatedDate        string          `json:"createdDate"`
}

// IsSoldOut сообщает, что остаток исчерпан.
func (p Product) IsSoldOut() bool {
	return p.CurrentStock == 0
}

// ValidateInvariants проверяет инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if !p.PricePerUnit.IsPositive() {
		errs = append(errs, ErrPriceNotPositive)
	}
	if !p.Unit.IsValid() {
		errs = append(errs, ErrUnitInvalid)
	}
	if p.CurrentStock < 0 || p.InitialStock < 0 {
		errs = append(errs, ErrStockNegative)
	}
	if p.CurrentStock > p.InitialStock {
		errs = append(errs, ErrStockAboveInitial)
	}

	return errs
}

// ProductDraft — данные для создания товара. InitialStock == 0 означает
// «не задан» и заменяется на CurrentStock; пустая CreatedDate — на текущую дату.
type ProductDraft struct {
	SellerMobileNumber string          `json:"sellerMobileNumber"`
	Name               string          `json:"name"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	Unit               Unit            `json:"unit"`
	PricePerUnit       decimal.Decimal `json:"pricePerUnit"`
	InitialStock       int64           `json:"initialStock,omitempty"`
	CurrentStock       int64           `json:"currentStock"`
	CreatedDate        string          `json:"createdDate,omitempty"`
}

// ProductPatch — белый список полей, которые продавец может редактировать.
// Остаток, идентификатор и владелец сюда не входят: остаток меняется только заказами.
type ProductPatch struct {
	Name         *string
	ImageURL     *string
	Unit         *Unit
	PricePerUnit *decimal.Decimal
}

// Editable field names accepted by ParseProductPatch and DecodeProductPatch.
const (
	PatchFieldName         = "name"
	PatchFieldImageURL     = "imageUrl"
	PatchFieldUnit         = "unit"
	PatchFieldPricePerUnit = "pricePerUnit"
)

// IsEmpty сообщает, что патч ничего не меняет.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.ImageURL == nil && p.Unit == nil && p.PricePerUnit == nil
}

// Validate проверяет значения патча до слияния с товаром.
func (p ProductPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}

	var errs []error
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Unit != nil && !p.Unit.IsValid() {
		errs = append(errs, ErrUnitInvalid)
	}
	if p.PricePerUnit != nil && !p.PricePerUnit.IsPositive() {
		errs = append(errs, ErrPriceNotPositive)
	}
	return errors.Join(errs...)
}

// Apply возвращает копию товара с применёнными полями патча.
func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = strings.TrimSpace(*p.Name)
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	if p.Unit != nil {
		product.Unit = *p.Unit
	}
	if p.PricePerUnit != nil {
		product.PricePerUnit = *p.PricePerUnit
	}
	return product
}

// ParseProductPatch строит патч из пар «поле=значение» (CLI, формы).
// Любое поле вне белого списка отклоняется с ErrFieldNotEditable.
func ParseProductPatch(fields map[string]string) (ProductPatch, error) {
	var patch ProductPatch
	for key, value := range fields {
		switch key {
		case PatchFieldName:
			v := value
			patch.Name = &v
		case PatchFieldImageURL:
			v := value
			patch.ImageURL = &v
		case PatchFieldUnit:
			u := Unit(value)
			patch.Unit = &u
		case PatchFieldPricePerUnit:
			price, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return ProductPatch{}, fmt.Errorf("%w: %s: %v", ErrPatchValueInvalid, key, err)
			}
			patch.PricePerUnit = &price
		default:
			return ProductPatch{}, fmt.Errorf("%w: %s", ErrFieldNotEditable, key)
		}
	}
	return patch, nil
}

// DecodeProductPatch разбирает JSON-объект частичного обновления.
// Поля вне белого списка отклоняются, а не молча игнорируются.
func DecodeProductPatch(data []byte) (ProductPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProductPatch{}, fmt.Errorf("%w: %v", ErrPatchValueInvalid, err)
	}

	var patch ProductPatch
	for key, value := range raw {
		var target any
		switch key {
		case PatchFieldName:
			patch.Name = new(string)
			target = patch.Name
		case PatchFieldImageURL:
			patch.ImageURL = new(string)
			target = patch.ImageURL
		case PatchFieldUnit:
			patch.Unit = new(Unit)
			target = patch.Unit
		case PatchFieldPricePerUnit:
			patch.PricePerUnit = new(decimal.Decimal)
			target = patch.PricePerUnit
		default:
			return ProductPatch{}, fmt.Errorf("%w: %s", ErrFieldNotEditable, key)
		}
		if err := json.Unmarshal(value, target); err != nil {
			return ProductPatch{}, fmt.Errorf("%w: %s: %v", ErrPatchValueInvalid, key, err)
		}
	}
	return patch, nil
}

// ProductWithStats — товар с показателями, посчитанными по журналу заказов.
type ProductWithStats struct {
	Product
	Revenue   decimal.Decimal `json:"revenue"`
	IsSoldOut bool            `json:"isSoldOut"`
}

// FormatQuantity форматирует остаток вместе с единицей: «120 kg».
func FormatQuantity(p Product) string {
	return fmt.Sprintf("%d %s", p.CurrentStock, p.Unit)
}

// FormatPrice форматирует сумму в рупиях с индийской группировкой разрядов: «₹1,25,000».
func FormatPrice(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	text := amount.Round(2).String()
	intPart, fracPart, _ := strings.Cut(text, ".")

	var grouped string
	if len(intPart) <= 3 {
		grouped = intPart
	} else {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(parts, ",") + "," + tail
	}

	if fracPart != "" {
		grouped += "." + fracPart
	}
	return sign + "₹" + grouped
}

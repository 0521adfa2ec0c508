package domain

// Unit — единица измерения, в которой продавец указывает цену и остаток.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitQuintal  Unit = "quintal"
	UnitTon      Unit = "ton"
	UnitBag      Unit = "bag"
	UnitLiter    Unit = "liter"
	UnitPiece    Unit = "piece"
)

// UnitCategory группирует единицы измерения для интерфейса.
type UnitCategory string

const (
	UnitCategoryWeight UnitCategory = "weight"
	UnitCategoryVolume UnitCategory = "volume"
	UnitCategoryCount  UnitCategory = "count"
	UnitCategoryOther  UnitCategory = "other"
)

// UnitConfig описывает единицу измерения и её метаданные.
type UnitConfig struct {
	Value       Unit         `json:"value"`
	Label       string       `json:"label"`
	Category    UnitCategory `json:"category"`
	Description string       `json:"description,omitempty"`
}

// unitConfigs — единственный источник правды о поддерживаемых единицах.
var unitConfigs = []UnitConfig{
	{Value: UnitKilogram, Label: "Kilogram (kg)", Category: UnitCategoryWeight, Description: "Used for solid items - grains, dals, flour, etc."},
	{Value: UnitQuintal, Label: "Quintal", Category: UnitCategoryWeight, Description: "Bulk measurement - 100 kg"},
	{Value: UnitTon, Label: "Ton", Category: UnitCategoryWeight, Description: "Large bulk measurement - 1000 kg"},
	{Value: UnitBag, Label: "Bag", Category: UnitCategoryWeight, Description: "Standard bag - typically 50 kg"},
	{Value: UnitLiter, Label: "Liter", Category: UnitCategoryVolume, Description: "Used for liquids - oil, honey, milk, etc."},
	{Value: UnitPiece, Label: "Piece", Category: UnitCategoryCount, Description: "Individual items or packages"},
}

// Units возвращает копию списка поддерживаемых единиц в порядке отображения.
func Units() []UnitConfig {
	result := make([]UnitConfig, len(unitConfigs))
	copy(result, unitConfigs)
	return result
}

// UnitsByCategory возвращает единицы, относящиеся к категории.
func UnitsByCategory(category UnitCategory) []UnitConfig {
	var result []UnitConfig
	for _, cfg := range unitConfigs {
		if cfg.Category == category {
			result = append(result, cfg)
		}
	}
	return result
}

// ParseUnit превращает строку в Unit или возвращает ErrUnitInvalid.
func ParseUnit(value string) (Unit, error) {
	u := Unit(value)
	if !u.IsValid() {
		return "", ErrUnitInvalid
	}
	return u, nil
}

func (u Unit) config() (UnitConfig, bool) {
	for _, cfg := range unitConfigs {
		if cfg.Value == u {
			return cfg, true
		}
	}
	return UnitConfig{}, false
}

// IsValid сообщает, поддерживается ли единица.
func (u Unit) IsValid() bool {
	_, ok := u.config()
	return ok
}

// Label возвращает подпись единицы; для неизвестных — само значение.
func (u Unit) Label() string {
	if cfg, ok := u.config(); ok {
		return cfg.Label
	}
	return string(u)
}

// Category возвращает категорию; неизвестные единицы попадают в «other».
func (u Unit) Category() UnitCategory {
	if cfg, ok := u.config(); ok {
		return cfg.Category
	}
	return UnitCategoryOther
}

func (u Unit) IsWeight() bool { return u.Category() == UnitCategoryWeight }

func (u Unit) IsVolume() bool { return u.Category() == UnitCategoryVolume }

package docstore

// Ключи документов. Значения — JSON в UTF-8.
const (
	KeyUsers            = "omiddle_users_db"
	KeyProducts         = "omiddle_products"
	KeyProductsMigrated = "products_migrated"
	KeyOrders           = "omiddle_orders"
	KeyMobileNumber     = "omiddle_mobile_number"
	KeyUserRole         = "omiddle_user_role"
	KeyOutbox           = "omiddle_outbox"
)

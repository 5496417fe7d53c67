package models

// All lists every persisted model; sqlite dev databases and tests migrate from it.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Review{},
		&Favorite{},
		&CartItem{},
		&Invoice{},
		&InvoiceItem{},
		&PurchaseHistory{},
		&PaymentMethod{},
	}
}

package types

import "github.com/shopspring/decimal"

// CartLine is one session-resident cart entry. Price and stock are snapshots
// taken when the line was last validated against the catalog.
type CartLine struct {
	ProductID uint64          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

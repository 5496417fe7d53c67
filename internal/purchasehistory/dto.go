package purchasehistory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one purchased cart line handed over by checkout.
type Line struct {
	ProductID   uint64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// EntryDTO is a purchase history row as listed to the shopper.
type EntryDTO struct {
	ID                  uint64          `json:"id"`
	UserID              uint64          `json:"userId"`
	Username            string          `json:"username,omitempty"`
	ProductID           uint64          `json:"productId"`
	ProductName         string          `json:"productName"`
	ProductImage        string          `json:"productImage"`
	Quantity            int             `json:"quantity"`
	UnitPriceAtPurchase decimal.Decimal `json:"unitPriceAtPurchase"`
	Total               decimal.Decimal `json:"total"`
	PurchasedAt         time.Time       `json:"purchasedAt"`
	InvoiceID           *uint64         `json:"invoiceId,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseHistory is one purchased line. Rows are append-only apart from the
// invoice back-reference, which is filled once the invoice exists.
type PurchaseHistory struct {
	ID                  uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID              uint64          `gorm:"column:user_id;not null;index:idx_purchase_history_user"`
	ProductID           uint64          `gorm:"column:product_id;not null"`
	ProductName         string          `gorm:"column:product_name;size:255;not null;default:''"`
	Quantity            int             `gorm:"column:quantity;not null"`
	UnitPriceAtPurchase decimal.Decimal `gorm:"column:unit_price_at_purchase;type:decimal(10,2);not null"`
	Total               decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null"`
	PurchasedAt         time.Time       `gorm:"column:purchased_at;not null"`
	InvoiceID           *uint64         `gorm:"column:invoice_id;index:idx_purchase_history_invoice"`
}

func (PurchaseHistory) TableName() string { return "purchase_history" }

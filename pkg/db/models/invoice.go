package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the immutable receipt header for a completed checkout.
type Invoice struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        uint64          `gorm:"column:user_id;not null;index:idx_invoices_user"`
	Number        string          `gorm:"column:number;size:50;not null;uniqueIndex:uniq_invoice_number"`
	IssuedAt      time.Time       `gorm:"column:issued_at;not null"`
	CustomerName  string          `gorm:"column:customer_name;size:255;not null"`
	Billing       string          `gorm:"column:billing;type:text"`
	PaymentMethod string          `gorm:"column:payment_method;size:50;not null"`
	PaymentLast4  string          `gorm:"column:payment_last4;size:8"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null;default:0"`
	GST           decimal.Decimal `gorm:"column:gst;type:decimal(10,2);not null;default:0"`
	DeliveryFee   decimal.Decimal `gorm:"column:delivery_fee;type:decimal(10,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null;default:0"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceItem snapshots a purchased line; it never references the live product row.
type InvoiceItem struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID uint64          `gorm:"column:invoice_id;not null;index:idx_invoice_items_invoice"`
	Name      string          `gorm:"column:name;size:255;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null"`
	Image     string          `gorm:"column:image;size:255"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

package invoices

import (
	"fmt"
	"time"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/pricing"
	"github.com/shopspring/decimal"
)

// NumberFor formats the invoice number issued at t.
func NumberFor(t time.Time) string {
	return fmt.Sprintf("INV-%d", t.UnixMilli())
}

// Customer is the billing block of an invoice.
type Customer struct {
	Name    string `json:"name"`
	Billing string `json:"billing"`
}

// Payment is how the invoice was settled.
type Payment struct {
	Method string `json:"method"`
	Last4  string `json:"last4"`
}

// ItemDTO is one snapshotted invoice line.
type ItemDTO struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Image    string          `json:"image"`
}

// InvoiceDTO is the receipt view. Saved is false for a transient invoice that
// could not be written.
type InvoiceDTO struct {
	ID          uint64          `json:"id"`
	Number      string          `json:"number"`
	IssuedAt    time.Time       `json:"issuedAt"`
	Customer    Customer        `json:"customer"`
	Payment     Payment         `json:"payment"`
	Items       []ItemDTO       `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	GST         decimal.Decimal `json:"gst"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	Saved       bool            `json:"saved"`
}

// FromModel maps a stored invoice without applying the display rule.
func FromModel(inv *models.Invoice) *InvoiceDTO {
	if inv == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, ItemDTO{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    pricing.Round2(item.Price),
			Subtotal: pricing.Round2(item.Subtotal),
			Image:    item.Image,
		})
	}
	return &InvoiceDTO{
		ID:          inv.ID,
		Number:      inv.Number,
		IssuedAt:    inv.IssuedAt,
		Customer:    Customer{Name: inv.CustomerName, Billing: inv.Billing},
		Payment:     Payment{Method: inv.PaymentMethod, Last4: inv.PaymentLast4},
		Items:       items,
		Subtotal:    pricing.Round2(inv.Subtotal),
		GST:         pricing.Round2(inv.GST),
		DeliveryFee: pricing.Round2(inv.DeliveryFee),
		Total:       pricing.Round2(inv.Total),
		Saved:       inv.ID != 0,
	}
}

// Display recomputes the totals from the items. Invoices written before GST
// and delivery were itemised store a total that does not match; those are
// shown with gst and delivery at zero and the stored total.
func Display(inv *InvoiceDTO) *InvoiceDTO {
	if inv == nil {
		return nil
	}
	out := *inv
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	recomputed := pricing.FromSubtotal(subtotal)
	out.Subtotal = recomputed.Subtotal

	if pricing.Differs(inv.Total, recomputed.Total) {
		out.GST = decimal.Zero
		out.DeliveryFee = decimal.Zero
		out.Total = pricing.Round2(inv.Total)
		return &out
	}
	out.GST = recomputed.GST
	out.DeliveryFee = recomputed.DeliveryFee
	out.Total = recomputed.Total
	return &out
}

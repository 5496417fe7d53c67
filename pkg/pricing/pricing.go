// Package pricing holds the storefront's single currency implementation. Every
// accumulation step is rounded to cents, half away from zero, so that cart
// views, checkout and stored invoices always agree.
package pricing

import "github.com/shopspring/decimal"

var (
	// GSTRate is the flat goods-and-services tax applied to the subtotal.
	GSTRate = decimal.RequireFromString("0.09")
	// FreeDeliveryThreshold waives the delivery fee once subtotal plus GST reaches it.
	FreeDeliveryThreshold = decimal.NewFromInt(50)
	// DeliveryFee is charged below the threshold.
	DeliveryFee = decimal.NewFromInt(5)

	// Tolerance is the largest difference treated as equal when comparing totals.
	Tolerance = decimal.RequireFromString("0.01")

	hundred = decimal.NewFromInt(100)
)

// Line is one priced quantity.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the breakdown shown on carts and invoices.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	GST         decimal.Decimal `json:"gst"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Round2 rounds to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineSubtotal returns round2(price * quantity).
func LineSubtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(quantity))))
}

// Subtotal sums the rounded line subtotals, rounding after every addition.
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = Round2(subtotal.Add(LineSubtotal(line.Price, line.Quantity)))
	}
	return subtotal
}

// Compute prices a set of lines.
func Compute(lines []Line) Totals {
	return FromSubtotal(Subtotal(lines))
}

// FromSubtotal derives GST, delivery fee and total from an already rounded subtotal.
func FromSubtotal(subtotal decimal.Decimal) Totals {
	subtotal = Round2(subtotal)
	gst := Round2(subtotal.Mul(GSTRate))

	fee := DeliveryFee
	if Round2(subtotal.Add(gst)).GreaterThanOrEqual(FreeDeliveryThreshold) {
		fee = decimal.Zero
	}

	return Totals{
		Subtotal:    subtotal,
		GST:         gst,
		DeliveryFee: fee,
		Total:       Round2(subtotal.Add(gst).Add(fee)),
	}
}

// DiscountPrice returns price * (1 - pct/100) rounded to cents. The second
// result is false when there is no positive discount.
func DiscountPrice(price decimal.Decimal, pct *decimal.Decimal) (decimal.Decimal, bool) {
	if pct == nil || !pct.IsPositive() {
		return decimal.Decimal{}, false
	}
	factor := decimal.NewFromInt(1).Sub(pct.Div(hundred))
	return Round2(price.Mul(factor)), true
}

// EffectivePrice is the discounted price when a discount applies, else the list price.
func EffectivePrice(price decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	if discounted, ok := DiscountPrice(price, pct); ok {
		return discounted
	}
	return price
}

// Differs reports whether a and b differ by more than Tolerance.
func Differs(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(Tolerance)
}

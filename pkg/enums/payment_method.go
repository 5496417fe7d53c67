package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a shopper settles an order at checkout.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPayNow PaymentMethod = "paynow"
	PaymentMethodPayLah PaymentMethod = "paylah"
	PaymentMethodQR     PaymentMethod = "qr"
)

// Labels stored on invoices.
const (
	PaymentLabelCard = "Card"
	PaymentLabelQR   = "PayNow / PayLah QR"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodPayNow,
	PaymentMethodPayLah,
	PaymentMethodQR,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsQR reports whether the method is settled by scanning a QR code.
func (p PaymentMethod) IsQR() bool {
	return p == PaymentMethodPayNow || p == PaymentMethodPayLah || p == PaymentMethodQR
}

// InvoiceLabel returns the label persisted on the invoice.
func (p PaymentMethod) InvoiceLabel() string {
	if p.IsQR() {
		return PaymentLabelQR
	}
	return PaymentLabelCard
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Empty input means card.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return PaymentMethodCard, nil
	}
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

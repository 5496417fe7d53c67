package checkout

import (
	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
)

// State is a step of the checkout state machine:
//
//	AwaitingPayment -> Validating -> {Rejected | Hydrating} -> {CartChanged | Pricing} -> Persisting -> Completed
//
// Only AccountMissing, Rejected, CartChanged and Completed are returned.
type State string

const (
	StateAwaitingPayment State = "awaiting_payment"
	StateValidating      State = "validating"
	StateHydrating       State = "hydrating"
	StatePricing         State = "pricing"
	StatePersisting      State = "persisting"

	StateAccountMissing State = "account_missing"
	StateRejected       State = "rejected"
	StateCartChanged    State = "cart_changed"
	StateCompleted      State = "completed"
)

// User-facing messages.
const (
	MsgCartEmpty     = "Cart is empty"
	MsgBadMethod     = "Please choose a valid payment method."
	MsgSuccess       = "Payment successful. Order placed."
	MsgAccountAbsent = "Your account no longer exists. Please log in again."
)

// PaymentInput is the submitted payment form.
type PaymentInput struct {
	paymentmethods.CardInput
	Method            string `json:"paymentMethod"`
	Billing           string `json:"billing"`
	SavePaymentMethod bool   `json:"savePaymentMethod"`
}

// Request is one checkout attempt over the full session cart.
type Request struct {
	UserID  uint64
	Cart    cart.State
	Payment PaymentInput
}

// Result is the terminal outcome. Cart is what the session cart must become:
// unchanged on rejection, rewritten on CartChanged, empty on completion.
type Result struct {
	State   State                `json:"state"`
	Message string               `json:"message"`
	Removed []string             `json:"removed,omitempty"`
	Cart    cart.State           `json:"cart"`
	Invoice *invoices.InvoiceDTO `json:"invoice,omitempty"`
}

// PaymentPage is the payment form view model.
type PaymentPage struct {
	State              State                            `json:"state"`
	Message            string                           `json:"message,omitempty"`
	Cart               cart.View                        `json:"cart"`
	SavedPaymentMethod *paymentmethods.PaymentMethodDTO `json:"savedPaymentMethod,omitempty"`
}

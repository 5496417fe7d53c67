package cart

import (
	"strings"

	"github.com/freshmart/storefront-backend/pkg/pricing"
	"github.com/freshmart/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// State is the session-resident cart. Operations take a State and return the
// next one; they never modify the slice they were given.
type State struct {
	Items []types.CartLine `json:"items"`
}

// Outcome is the user-facing result of a successful mutation. Partial is set
// when the cart holds less than the shopper asked for.
type Outcome struct {
	Message string `json:"message"`
	Partial bool   `json:"partial"`
}

// View is the priced cart page.
type View struct {
	Items       []types.CartLine `json:"items"`
	Search      string           `json:"search"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	GST         decimal.Decimal  `json:"gst"`
	DeliveryFee decimal.Decimal  `json:"deliveryFee"`
	Total       decimal.Decimal  `json:"total"`
	ItemCount   int              `json:"itemCount"`
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Quantity returns how many units of productID are in the cart.
func (s State) Quantity(productID uint64) int {
	if i := s.index(productID); i >= 0 {
		return s.Items[i].Quantity
	}
	return 0
}

// Lines converts the cart into pricing lines.
func (s State) Lines() []pricing.Line {
	return toPricingLines(s.Items)
}

func (s State) index(productID uint64) int {
	for i, item := range s.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	items := make([]types.CartLine, len(s.Items))
	copy(items, s.Items)
	return State{Items: items}
}

// BuildView filters lines by a case-insensitive name match and prices what is
// left. The totals are for display; checkout always prices the full cart.
func BuildView(state State, search string) View {
	search = strings.TrimSpace(search)
	needle := strings.ToLower(search)

	items := make([]types.CartLine, 0, len(state.Items))
	count := 0
	for _, item := range state.Items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		items = append(items, item)
		count += item.Quantity
	}

	totals := pricing.Compute(toPricingLines(items))
	return View{
		Items:       items,
		Search:      search,
		Subtotal:    totals.Subtotal,
		GST:         totals.GST,
		DeliveryFee: totals.DeliveryFee,
		Total:       totals.Total,
		ItemCount:   count,
	}
}

func toPricingLines(items []types.CartLine) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}
	return lines
}

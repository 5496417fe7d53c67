package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/checkout"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	result  checkout.Result
	err     error
	request checkout.Request
}

func (s *stubEngine) ShowPayment(_ context.Context, _ uint64, state cart.State) (*checkout.PaymentPage, error) {
	if state.IsEmpty() {
		return &checkout.PaymentPage{State: checkout.StateRejected, Message: checkout.MsgCartEmpty}, nil
	}
	return &checkout.PaymentPage{State: checkout.StateAwaitingPayment, Cart: cart.BuildView(state, "")}, nil
}

func (s *stubEngine) Checkout(_ context.Context, req checkout.Request) (checkout.Result, error) {
	s.request = req
	return s.result, s.err
}

type stubInvoices struct {
	byID   map[uint64]*invoices.InvoiceDTO
	latest *invoices.InvoiceDTO
	scopes []*uint64
}

func (s *stubInvoices) Get(_ context.Context, id uint64, userID *uint64) (*invoices.InvoiceDTO, error) {
	s.scopes = append(s.scopes, userID)
	inv, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, invoices.MsgNotFound)
	}
	return inv, nil
}

func (s *stubInvoices) Latest(_ context.Context, _ uint64) (*invoices.InvoiceDTO, error) {
	if s.latest == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, invoices.MsgNoInvoices)
	}
	return s.latest, nil
}

var shopper = session.User{ID: 7, Username: "mira", Email: "mira@example.com", Role: enums.RoleUser}

func newCheckoutHarness(t *testing.T, engine *stubEngine, invs *stubInvoices) *harness {
	t.Helper()
	manager, err := cart.NewManager(cart.ManagerParams{Catalog: groceries()})
	require.NoError(t, err)

	h := newHarness(t)
	h.router.Post("/cart/add", CartAdd(manager, nil))
	h.router.Post("/checkout", CheckoutRedirect())
	h.router.Get("/payment", PaymentPage(engine, nil))
	h.router.Post("/payment", ProcessPayment(engine, nil))
	h.router.Get("/invoice", InvoiceLatest(invs, nil))
	h.router.Get("/invoice/{id}", InvoiceShow(invs, nil))
	return h
}

func cardPayment() map[string]any {
	return map[string]any{
		"paymentMethod": "card",
		"cardNumber":    "4111 1111 1111 1111",
		"cardName":      "Mira",
		"expiry":        "12/29",
		"cvv":           "123",
		"billing":       "1 Orchard Rd",
	}
}

func TestCheckoutRedirectsToPayment(t *testing.T) {
	t.Parallel()
	h := newCheckoutHarness(t, &stubEngine{}, &stubInvoices{})
	requireRedirect(t, h.do(http.MethodPost, "/checkout", nil), "/payment")
}

func TestPaymentPageEmptyCartGoesBackToCart(t *testing.T) {
	t.Parallel()
	h := newCheckoutHarness(t, &stubEngine{}, &stubInvoices{})
	h.signIn(shopper)

	requireRedirect(t, h.do(http.MethodGet, "/payment", nil), "/cart")
	assert.Equal(t, []string{checkout.MsgCartEmpty}, h.state().CartErrors)
}

func TestPaymentPageShowsCart(t *testing.T) {
	t.Parallel()
	h := newCheckoutHarness(t, &stubEngine{}, &stubInvoices{})
	h.signIn(shopper)
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 2}), "/cart")

	var view checkout.PaymentPage
	page(t, h.do(http.MethodGet, "/payment", nil), &view)
	assert.Equal(t, checkout.StateAwaitingPayment, view.State)
	assert.Equal(t, 2, view.Cart.ItemCount)
}

func TestProcessPaymentCompletedRedirectsToInvoice(t *testing.T) {
	t.Parallel()
	invoice := &invoices.InvoiceDTO{ID: 42, Number: "INV-1", Total: decimal.RequireFromString("10.45"), Saved: true}
	engine := &stubEngine{result: checkout.Result{
		State:   checkout.StateCompleted,
		Message: checkout.MsgSuccess,
		Cart:    cart.State{Items: []types.CartLine{}},
		Invoice: invoice,
	}}
	invs := &stubInvoices{byID: map[uint64]*invoices.InvoiceDTO{42: invoice}}
	h := newCheckoutHarness(t, engine, invs)
	h.signIn(shopper)
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 2}), "/cart")

	requireRedirect(t, h.do(http.MethodPost, "/payment", cardPayment()), "/invoice/42")
	assert.Equal(t, uint64(7), engine.request.UserID)
	assert.Equal(t, "card", engine.request.Payment.Method)
	assert.Equal(t, "12/29", engine.request.Payment.Expiry)
	require.Len(t, engine.request.Cart.Items, 1)

	state := h.state()
	assert.Empty(t, state.Cart)
	assert.Equal(t, uint64(42), state.LastInvoiceID)

	var view invoicePage
	flash := page(t, h.do(http.MethodGet, "/invoice", nil), &view)
	assert.Equal(t, "INV-1", view.Invoice.Number)
	assert.Equal(t, []string{checkout.MsgSuccess}, flash.Success)
	require.NotEmpty(t, invs.scopes)
	require.NotNil(t, invs.scopes[0])
	assert.Equal(t, uint64(7), *invs.scopes[0])
}

func TestProcessPaymentUnsavedInvoiceIsRendered(t *testing.T) {
	t.Parallel()
	engine := &stubEngine{result: checkout.Result{
		State:   checkout.StateCompleted,
		Message: checkout.MsgSuccess,
		Cart:    cart.State{Items: []types.CartLine{}},
		Invoice: &invoices.InvoiceDTO{Number: "INV-2"},
	}}
	h := newCheckoutHarness(t, engine, &stubInvoices{})
	h.signIn(shopper)
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1}), "/cart")

	var view invoicePage
	flash := page(t, h.do(http.MethodPost, "/payment", cardPayment()), &view)
	assert.Equal(t, "INV-2", view.Invoice.Number)
	assert.False(t, view.Invoice.Saved)
	assert.Equal(t, []string{checkout.MsgSuccess}, flash.Success)

	state := h.state()
	assert.Empty(t, state.Cart)
	assert.Zero(t, state.LastInvoiceID)
}

func TestProcessPaymentRejectedKeepsCart(t *testing.T) {
	t.Parallel()
	engine := &stubEngine{}
	h := newCheckoutHarness(t, engine, &stubInvoices{})
	h.signIn(shopper)
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 2}), "/cart")

	engine.result = checkout.Result{
		State:   checkout.StateRejected,
		Message: "CVV must be 3 digits.",
	}
	requireRedirect(t, h.do(http.MethodPost, "/payment", cardPayment()), "/payment")
	state := h.state()
	require.Len(t, state.Cart, 1)
	assert.Equal(t, []string{"CVV must be 3 digits."}, state.Flash.Errors)
}

func TestProcessPaymentCartChangedRewritesCart(t *testing.T) {
	t.Parallel()
	engine := &stubEngine{result: checkout.Result{
		State:   checkout.StateCartChanged,
		Message: "Some items are no longer available and were removed: Bread",
		Removed: []string{"Bread"},
		Cart: cart.State{Items: []types.CartLine{
			{ProductID: 1, Name: "Apple", Price: decimal.RequireFromString("2.50"), Quantity: 1, Stock: 5},
		}},
	}}
	h := newCheckoutHarness(t, engine, &stubInvoices{})
	h.signIn(shopper)
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 3}), "/cart")

	requireRedirect(t, h.do(http.MethodPost, "/payment", cardPayment()), "/cart")
	state := h.state()
	require.Len(t, state.Cart, 1)
	assert.Equal(t, 1, state.Cart[0].Quantity)
	assert.Contains(t, state.CartErrors, engine.result.Message)
}

func TestProcessPaymentAccountMissingEndsSession(t *testing.T) {
	t.Parallel()
	engine := &stubEngine{result: checkout.Result{State: checkout.StateAccountMissing, Message: checkout.MsgAccountAbsent}}
	h := newCheckoutHarness(t, engine, &stubInvoices{})
	h.signIn(shopper)
	require.NotNil(t, h.cookie)

	requireRedirect(t, h.do(http.MethodPost, "/payment", cardPayment()), "/login")
	assert.Nil(t, h.cookie)
}

func TestInvoiceShowNotFound(t *testing.T) {
	t.Parallel()
	h := newCheckoutHarness(t, &stubEngine{}, &stubInvoices{})
	h.signIn(shopper)

	requireRedirect(t, h.do(http.MethodGet, "/invoice/5", nil), "/purchase-history")
	assert.Equal(t, []string{invoices.MsgNotFound}, h.state().Flash.Errors)
}

func TestInvoiceShowAdminIsUnscoped(t *testing.T) {
	t.Parallel()
	invs := &stubInvoices{byID: map[uint64]*invoices.InvoiceDTO{5: {ID: 5, Number: "INV-5", Saved: true}}}
	h := newCheckoutHarness(t, &stubEngine{}, invs)
	h.signIn(session.User{ID: 1, Username: "root", Role: enums.RoleAdmin})

	var view invoicePage
	page(t, h.do(http.MethodGet, "/invoice/5", nil), &view)
	assert.Equal(t, "INV-5", view.Invoice.Number)
	require.Len(t, invs.scopes, 1)
	assert.Nil(t, invs.scopes[0])
}

func TestInvoiceLatestWithoutInvoices(t *testing.T) {
	t.Parallel()
	h := newCheckoutHarness(t, &stubEngine{}, &stubInvoices{})
	h.signIn(shopper)

	requireRedirect(t, h.do(http.MethodGet, "/invoice", nil), "/shopping")
	assert.Equal(t, []string{invoices.MsgNoInvoices}, h.state().Flash.Errors)
}

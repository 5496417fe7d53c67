package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/catalog"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog map[uint64]*catalog.ProductDTO

func (s stubCatalog) Get(_ context.Context, id uint64) (*catalog.ProductDTO, error) {
	p, ok := s[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}
	cp := *p
	return &cp, nil
}

func newCartHarness(t *testing.T, products stubCatalog) *harness {
	t.Helper()
	manager, err := cart.NewManager(cart.ManagerParams{Catalog: products})
	require.NoError(t, err)

	h := newHarness(t)
	h.router.Get("/cart", CartView(manager, nil))
	h.router.Post("/cart/add", CartAdd(manager, nil))
	h.router.Post("/cart/update/{productId}", CartUpdate(manager, nil))
	h.router.Post("/cart/remove/{productId}", CartRemove(manager, nil))
	h.router.Post("/cart/clear", CartClear(manager, nil))
	return h
}

func groceries() stubCatalog {
	return stubCatalog{
		1: {ID: 1, Name: "Apple", Price: decimal.RequireFromString("2.50"), Stock: 5},
		2: {ID: 2, Name: "Bread", Price: decimal.RequireFromString("3.20"), Stock: 0},
	}
}

func TestCartAddThenView(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())

	rec := h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 3})
	requireRedirect(t, rec, "/cart")

	var view cartPageView
	page(t, h.do(http.MethodGet, "/cart", nil), &view)
	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, 3, view.Cart.Items[0].Quantity)
	assert.Equal(t, []string{cart.MsgAdded}, view.Messages)
	assert.Empty(t, view.Errors)

	var again cartPageView
	page(t, h.do(http.MethodGet, "/cart", nil), &again)
	assert.Empty(t, again.Messages, "cart feedback is shown once")
}

func TestCartAddPartialShownAsError(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())

	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 9}), "/cart")

	var view cartPageView
	page(t, h.do(http.MethodGet, "/cart", nil), &view)
	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, 5, view.Cart.Items[0].Quantity)
	require.Len(t, view.Errors, 1)
	assert.Empty(t, view.Messages)
}

func TestCartAddMissingProductReturnsToShopping(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())

	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 99}), "/shopping")
	assert.Equal(t, []string{msgProductNotFound}, h.state().CartErrors)
	assert.Empty(t, h.state().Cart)
}

func TestCartAddSoldOutStaysOnCart(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())

	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 2, "quantity": 1}), "/cart")
	state := h.state()
	assert.Empty(t, state.Cart)
	assert.Len(t, state.CartErrors, 1)
}

func TestCartUpdateRemoveClear(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())
	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 1}), "/cart")

	requireRedirect(t, h.do(http.MethodPost, "/cart/update/1", map[string]any{"quantity": 4}), "/cart")
	state := h.state()
	require.Len(t, state.Cart, 1)
	assert.Equal(t, 4, state.Cart[0].Quantity)

	requireRedirect(t, h.do(http.MethodPost, "/cart/remove/1", nil), "/cart")
	assert.Empty(t, h.state().Cart)

	requireRedirect(t, h.do(http.MethodPost, "/cart/add", map[string]any{"productId": 1, "quantity": 2}), "/cart")
	requireRedirect(t, h.do(http.MethodPost, "/cart/clear", nil), "/cart")
	state = h.state()
	assert.Empty(t, state.Cart)
	assert.Contains(t, state.CartMessages, cart.MsgCleared)
}

func TestCartUpdateUnknownLine(t *testing.T) {
	t.Parallel()
	h := newCartHarness(t, groceries())

	requireRedirect(t, h.do(http.MethodPost, "/cart/update/abc", map[string]any{"quantity": 1}), "/cart")
	assert.Equal(t, []string{cart.MsgItemNotFound}, h.state().CartErrors)
}

package checkout

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/internal/purchasehistory"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/db/dbtest"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/metrics"
	"github.com/freshmart/storefront-backend/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type clearRecorder struct {
	mu    sync.Mutex
	users []uint64
}

func (c *clearRecorder) Clear(_ context.Context, userID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}

type failingInvoices struct{}

func (failingInvoices) Create(context.Context, *models.Invoice) error {
	return errors.New("invoices table is locked")
}

type oversellCatalog struct {
	catalog.Service
}

func (oversellCatalog) DecrementStock(context.Context, uint64, int) (bool, error) {
	return false, nil
}

type fixture struct {
	conn     *gorm.DB
	engine   *Engine
	params   EngineParams
	user     models.User
	admin    models.User
	apples   models.Product
	bread    models.Product
	mirror   *clearRecorder
	methods  paymentmethods.Service
	registry *prometheus.Registry
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t, "checkout")

	f := &fixture{conn: conn, mirror: &clearRecorder{}, registry: prometheus.NewRegistry(), logs: &bytes.Buffer{}}
	f.user = models.User{Username: "mei", Email: "mei@example.com", PasswordHash: "x", Address: "8 Marina Way", Role: enums.RoleUser}
	require.NoError(t, conn.Create(&f.user).Error)
	f.admin = models.User{Username: "root", Email: "root@example.com", PasswordHash: "x", Role: enums.RoleAdmin}
	require.NoError(t, conn.Create(&f.admin).Error)

	discount := d("20")
	f.apples = models.Product{Name: "Apples", Price: d("10.00"), Stock: 5, Image: "apple.png"}
	f.bread = models.Product{Name: "Bread", Price: d("5.00"), DiscountPercentage: &discount, Stock: 3}
	require.NoError(t, conn.Create(&f.apples).Error)
	require.NoError(t, conn.Create(&f.bread).Error)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	f.methods, err = paymentmethods.NewService(paymentmethods.NewRepository(conn))
	require.NoError(t, err)

	f.params = EngineParams{
		Users:          users.NewRepository(conn),
		Catalog:        catalogSvc,
		History:        purchasehistory.NewRepository(conn),
		Invoices:       invoices.NewRepository(conn),
		Mirror:         f.mirror,
		PaymentMethods: f.methods,
		Metrics:        metrics.NewCheckoutMetrics(f.registry),
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: f.logs}),
		Now:            func() time.Time { return fixedNow },
	}
	f.engine, err = NewEngine(f.params)
	require.NoError(t, err)
	return f
}

func (f *fixture) cart() cart.State {
	return cart.State{Items: []types.CartLine{
		{ProductID: f.apples.ID, Name: "Apples", Price: d("10.00"), Quantity: 2},
		{ProductID: f.bread.ID, Name: "Bread", Price: d("5.00"), Quantity: 1},
	}}
}

func validCard() PaymentInput {
	return PaymentInput{
		CardInput: paymentmethods.CardInput{CardNumber: "4242 4242 4242 4242", CardName: "Mei Tan", Expiry: "12/29", CVV: "123"},
	}
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) stock(t *testing.T, id uint64) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.First(&p, id).Error)
	return p.Stock
}

func (f *fixture) outcomes(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "storefront_checkout_outcomes_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCheckoutCompletes(t *testing.T) {
	f := newFixture(t)
	payment := validCard()
	payment.SavePaymentMethod = true

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: payment})
	require.NoError(t, err)
	require.Equal(t, StateCompleted, result.State)
	assert.Equal(t, MsgSuccess, result.Message)
	assert.True(t, result.Cart.IsEmpty())

	inv := result.Invoice
	require.NotNil(t, inv)
	assert.True(t, inv.Saved)
	assert.NotZero(t, inv.ID)
	assert.Equal(t, invoices.NumberFor(fixedNow), inv.Number)
	assert.Equal(t, "Card", inv.Payment.Method)
	assert.Equal(t, "4242", inv.Payment.Last4)
	assert.Equal(t, "Mei Tan", inv.Customer.Name)
	assert.Equal(t, "8 Marina Way", inv.Customer.Billing)
	// bread is re-priced at its discounted 4.00
	assert.True(t, inv.Subtotal.Equal(d("24")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.GST.Equal(d("2.16")), "gst %s", inv.GST)
	assert.True(t, inv.DeliveryFee.Equal(d("5")), "fee %s", inv.DeliveryFee)
	assert.True(t, inv.Total.Equal(d("31.16")), "total %s", inv.Total)

	var history []models.PurchaseHistory
	require.NoError(t, f.conn.Order("id").Find(&history).Error)
	require.Len(t, history, 2)
	for _, row := range history {
		require.NotNil(t, row.InvoiceID)
		assert.Equal(t, inv.ID, *row.InvoiceID)
	}
	assert.True(t, history[1].UnitPriceAtPurchase.Equal(d("4")))

	assert.Equal(t, 3, f.stock(t, f.apples.ID))
	assert.Equal(t, 2, f.stock(t, f.bread.ID))
	assert.Equal(t, []uint64{f.user.ID}, f.mirror.users)

	saved, err := f.methods.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "4242", saved.Last4)

	assert.Equal(t, float64(1), f.outcomes(t, string(StateCompleted)))
}

func TestCheckoutDeletedProductChangesCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.conn.Delete(&models.Product{}, f.bread.ID).Error)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", f.apples.ID).Update("price", d("12.00")).Error)

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: validCard()})
	require.NoError(t, err)
	require.Equal(t, StateCartChanged, result.State)
	assert.Equal(t, []string{"Bread"}, result.Removed)
	assert.Contains(t, result.Message, "Bread")
	assert.Nil(t, result.Invoice)

	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, f.apples.ID, result.Cart.Items[0].ProductID)
	assert.True(t, result.Cart.Items[0].Price.Equal(d("12")), "re-priced at current price")

	assert.Zero(t, f.count(t, &models.Invoice{}))
	assert.Zero(t, f.count(t, &models.PurchaseHistory{}))
	assert.Equal(t, 5, f.stock(t, f.apples.ID))
	assert.Empty(t, f.mirror.users)
}

func TestCheckoutSoldOutLineChangesCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", f.bread.ID).Update("quantity", 0).Error)

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: validCard()})
	require.NoError(t, err)
	assert.Equal(t, StateCartChanged, result.State)
	assert.Equal(t, []string{"Bread"}, result.Removed)
	assert.Zero(t, f.count(t, &models.Invoice{}))
}

func TestCheckoutCardRejectionWritesNothing(t *testing.T) {
	f := newFixture(t)
	cases := map[string]struct {
		mutate func(*PaymentInput)
		want   string
	}{
		"short number": {func(p *PaymentInput) { p.CardNumber = "4242" }, paymentmethods.MsgCardNumber},
		"bad cvv":      {func(p *PaymentInput) { p.CVV = "12" }, paymentmethods.MsgCardCVV},
		"bad format":   {func(p *PaymentInput) { p.Expiry = "2029-12" }, paymentmethods.MsgExpiryFormat},
		"expired":      {func(p *PaymentInput) { p.Expiry = "12/24" }, paymentmethods.MsgExpiryInvalid},
		"bad method":   {func(p *PaymentInput) { p.Method = "cheque" }, MsgBadMethod},
	}
	for name, tc := range cases {
		payment := validCard()
		tc.mutate(&payment)
		start := f.cart()

		result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: start, Payment: payment})
		require.NoError(t, err, name)
		assert.Equal(t, StateRejected, result.State, name)
		assert.Equal(t, tc.want, result.Message, name)
		assert.Equal(t, start, result.Cart, name)
	}

	assert.Zero(t, f.count(t, &models.Invoice{}))
	assert.Zero(t, f.count(t, &models.PurchaseHistory{}))
	assert.Equal(t, 5, f.stock(t, f.apples.ID))
	assert.Equal(t, float64(len(cases)), f.outcomes(t, string(StateRejected)))
}

func TestCheckoutQRSkipsCardValidation(t *testing.T) {
	f := newFixture(t)
	payment := PaymentInput{Method: "PayNow", Billing: " 1 Raffles Pl ", SavePaymentMethod: true}

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: payment})
	require.NoError(t, err)
	require.Equal(t, StateCompleted, result.State)
	assert.Equal(t, enums.PaymentLabelQR, result.Invoice.Payment.Method)
	assert.Empty(t, result.Invoice.Payment.Last4)
	assert.Equal(t, "mei", result.Invoice.Customer.Name)
	assert.Equal(t, "1 Raffles Pl", result.Invoice.Customer.Billing)

	saved, err := f.methods.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, saved, "qr payments never save a card")
}

func TestCheckoutAdminDoesNotSaveCard(t *testing.T) {
	f := newFixture(t)
	payment := validCard()
	payment.SavePaymentMethod = true

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.admin.ID, Cart: f.cart(), Payment: payment})
	require.NoError(t, err)
	require.Equal(t, StateCompleted, result.State)

	saved, err := f.methods.Get(context.Background(), f.admin.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestCheckoutEmptyCartAndMissingAccount(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.Checkout(context.Background(), Request{UserID: f.user.ID, Payment: validCard()})
	require.NoError(t, err)
	assert.Equal(t, StateRejected, result.State)
	assert.Equal(t, MsgCartEmpty, result.Message)

	result, err = f.engine.Checkout(context.Background(), Request{UserID: 9999, Cart: f.cart(), Payment: validCard()})
	require.NoError(t, err)
	assert.Equal(t, StateAccountMissing, result.State)
	assert.Equal(t, float64(1), f.outcomes(t, string(StateAccountMissing)))
}

func TestCheckoutInvoiceFailureRendersTransientInvoice(t *testing.T) {
	f := newFixture(t)
	params := f.params
	params.Invoices = failingInvoices{}
	engine, err := NewEngine(params)
	require.NoError(t, err)

	result, err := engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: validCard()})
	require.NoError(t, err)
	require.Equal(t, StateCompleted, result.State)
	require.NotNil(t, result.Invoice)
	assert.False(t, result.Invoice.Saved)
	assert.Zero(t, result.Invoice.ID)
	assert.True(t, result.Invoice.Total.Equal(d("31.16")))
	assert.True(t, result.Cart.IsEmpty())

	var history []models.PurchaseHistory
	require.NoError(t, f.conn.Find(&history).Error)
	require.Len(t, history, 2, "purchase history is not rolled back")
	assert.Nil(t, history[0].InvoiceID)
	assert.Equal(t, 3, f.stock(t, f.apples.ID), "stock is not rolled back")
	assert.Contains(t, f.logs.String(), "checkout.invoice.write_failed")
}

func TestCheckoutOversellOnlyWarns(t *testing.T) {
	f := newFixture(t)
	params := f.params
	params.Catalog = oversellCatalog{Service: params.Catalog.(catalog.Service)}
	engine, err := NewEngine(params)
	require.NoError(t, err)

	result, err := engine.Checkout(context.Background(), Request{UserID: f.user.ID, Cart: f.cart(), Payment: validCard()})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.True(t, result.Invoice.Saved)
	assert.Contains(t, f.logs.String(), "checkout.stock.oversell")
}

func TestShowPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page, err := f.engine.ShowPayment(ctx, f.user.ID, cart.State{})
	require.NoError(t, err)
	assert.Equal(t, StateRejected, page.State)
	assert.Equal(t, MsgCartEmpty, page.Message)

	card, err := paymentmethods.ValidateCard(validCard().CardInput)
	require.NoError(t, err)
	_, err = f.methods.Save(ctx, f.user.ID, enums.RoleUser, card)
	require.NoError(t, err)

	page, err = f.engine.ShowPayment(ctx, f.user.ID, f.cart())
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingPayment, page.State)
	assert.True(t, page.Cart.Total.Equal(d("32.25")))
	require.NotNil(t, page.SavedPaymentMethod)
	assert.Equal(t, "Card ending in 4242", page.SavedPaymentMethod.Label)
}

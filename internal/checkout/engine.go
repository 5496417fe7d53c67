package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/internal/purchasehistory"
	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/metrics"
	"github.com/freshmart/storefront-backend/pkg/pricing"
	"github.com/freshmart/storefront-backend/pkg/types"
)

type accountLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

type productStore interface {
	Get(ctx context.Context, id uint64) (*catalog.ProductDTO, error)
	DecrementStock(ctx context.Context, id uint64, qty int) (bool, error)
}

type historyStore interface {
	CreateBulk(ctx context.Context, userID uint64, purchasedAt time.Time, lines []purchasehistory.Line) ([]uint64, error)
	LinkInvoice(ctx context.Context, ids []uint64, invoiceID uint64) error
}

type invoiceStore interface {
	Create(ctx context.Context, invoice *models.Invoice) error
}

type cartMirror interface {
	Clear(ctx context.Context, userID uint64)
}

// EngineParams groups the checkout engine's collaborators. Mirror, PaymentMethods,
// Metrics and Logger are optional.
type EngineParams struct {
	Users          accountLookup
	Catalog        productStore
	History        historyStore
	Invoices       invoiceStore
	Mirror         cartMirror
	PaymentMethods paymentmethods.Service
	Metrics        *metrics.CheckoutMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

// Engine turns a session cart into a purchase. Writes are sequential and not
// wrapped in a transaction; a failed invoice write leaves the purchase history
// and stock decrement in place and yields an unsaved invoice.
type Engine struct {
	users          accountLookup
	catalog        productStore
	history        historyStore
	invoices       invoiceStore
	mirror         cartMirror
	paymentMethods paymentmethods.Service
	metrics        *metrics.CheckoutMetrics
	logg           *logger.Logger
	now            func() time.Time
}

// NewEngine builds a checkout engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	if params.History == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase history repo is required")
	}
	if params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		users:          params.Users,
		catalog:        params.Catalog,
		history:        params.History,
		invoices:       params.Invoices,
		mirror:         params.Mirror,
		paymentMethods: params.PaymentMethods,
		metrics:        params.Metrics,
		logg:           params.Logger,
		now:            now,
	}, nil
}

// ShowPayment prepares the payment form for the full cart.
func (e *Engine) ShowPayment(ctx context.Context, userID uint64, state cart.State) (*PaymentPage, error) {
	if state.IsEmpty() {
		return &PaymentPage{State: StateRejected, Message: MsgCartEmpty, Cart: cart.BuildView(state, "")}, nil
	}
	page := &PaymentPage{State: StateAwaitingPayment, Cart: cart.BuildView(state, "")}
	if e.paymentMethods != nil && userID != 0 {
		saved, err := e.paymentMethods.Get(ctx, userID)
		if err != nil {
			e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "checkout.saved_payment_method.load_failed")
		} else {
			page.SavedPaymentMethod = saved
		}
	}
	return page, nil
}

// Checkout runs one attempt to its terminal state. The returned error is only
// set for infrastructure failures before anything was written.
func (e *Engine) Checkout(ctx context.Context, req Request) (result Result, err error) {
	started := e.now()
	ctx = e.logg.WithUserID(ctx, req.UserID)
	defer func() {
		outcome := string(result.State)
		if err != nil {
			outcome = "error"
		}
		e.metrics.Observe(outcome, e.now().Sub(started))
	}()

	user, err := e.users.FindByID(ctx, req.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return Result{State: StateAccountMissing, Message: MsgAccountAbsent, Cart: req.Cart}, nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	// validating
	if req.Cart.IsEmpty() {
		return reject(req, MsgCartEmpty), nil
	}
	method, perr := enums.ParsePaymentMethod(req.Payment.Method)
	if perr != nil {
		return reject(req, MsgBadMethod), nil
	}
	var card paymentmethods.Card
	if !method.IsQR() {
		card, perr = paymentmethods.ValidateCard(req.Payment.CardInput)
		if perr != nil {
			return reject(req, pkgerrors.PublicMessage(perr)), nil
		}
	}

	// hydrating
	lines, kept, removed, err := e.hydrate(ctx, req.Cart)
	if err != nil {
		return Result{}, err
	}
	if len(removed) > 0 {
		return Result{
			State:   StateCartChanged,
			Message: cartChangedMessage(removed),
			Removed: removed,
			Cart:    kept,
		}, nil
	}

	// pricing
	totals := pricing.Compute(cart.State{Items: lines}.Lines())

	// persisting
	issuedAt := e.now().UTC()
	invoice := e.persist(ctx, user, method, card, req.Payment, lines, totals, issuedAt)

	if req.Payment.SavePaymentMethod && !method.IsQR() {
		e.savePaymentMethod(ctx, user, card)
	}

	return Result{
		State:   StateCompleted,
		Message: MsgSuccess,
		Cart:    cart.State{Items: []types.CartLine{}},
		Invoice: invoice,
	}, nil
}

func reject(req Request, message string) Result {
	return Result{State: StateRejected, Message: message, Cart: req.Cart}
}

// hydrate re-reads every line from the catalog. Lines whose product is gone or
// sold out are reported in removed; kept is the cart re-priced and clamped.
func (e *Engine) hydrate(ctx context.Context, state cart.State) ([]types.CartLine, cart.State, []string, error) {
	lines := make([]types.CartLine, 0, len(state.Items))
	removed := []string{}
	for _, item := range state.Items {
		product, err := e.catalog.Get(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				removed = append(removed, lineName(item))
				continue
			}
			return nil, cart.State{}, nil, err
		}
		qty := min(max(1, item.Quantity), product.Stock)
		if qty <= 0 {
			removed = append(removed, product.Name)
			continue
		}
		lines = append(lines, types.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Image:     product.Image,
			Stock:     product.Stock,
			Quantity:  qty,
		})
	}
	return lines, cart.State{Items: lines}, removed, nil
}

func (e *Engine) persist(
	ctx context.Context,
	user *models.User,
	method enums.PaymentMethod,
	card paymentmethods.Card,
	payment PaymentInput,
	lines []types.CartLine,
	totals pricing.Totals,
	issuedAt time.Time,
) *invoices.InvoiceDTO {
	historyLines := make([]purchasehistory.Line, 0, len(lines))
	for _, line := range lines {
		historyLines = append(historyLines, purchasehistory.Line{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
		})
	}
	historyIDs, err := e.history.CreateBulk(ctx, user.ID, issuedAt, historyLines)
	if err != nil {
		e.logg.Error(ctx, "checkout.purchase_history.write_failed", err)
	}

	for _, line := range lines {
		ok, err := e.catalog.DecrementStock(ctx, line.ProductID, line.Quantity)
		lineCtx := e.logg.WithFields(ctx, map[string]any{"product_id": line.ProductID, "quantity": line.Quantity})
		switch {
		case err != nil:
			e.logg.Error(lineCtx, "checkout.stock.decrement_failed", err)
		case !ok:
			e.logg.Warn(lineCtx, "checkout.stock.oversell")
		}
	}

	invoice := buildInvoice(user, method, card, payment, lines, totals, issuedAt)
	invCtx := e.logg.WithField(ctx, "invoice_number", invoice.Number)
	if err := e.invoices.Create(invCtx, invoice); err != nil {
		if db.IsUniqueViolation(err, "") {
			// another checkout took the same millisecond
			retry := buildInvoice(user, method, card, payment, lines, totals, issuedAt.Add(time.Millisecond))
			err = e.invoices.Create(invCtx, retry)
			invoice = retry
		}
		if err != nil {
			e.logg.Error(invCtx, "checkout.invoice.write_failed", err)
			invoice.ID = 0
			for i := range invoice.Items {
				invoice.Items[i].ID = 0
				invoice.Items[i].InvoiceID = 0
			}
		}
	}

	if invoice.ID != 0 {
		if err := e.history.LinkInvoice(invCtx, historyIDs, invoice.ID); err != nil {
			e.logg.Error(invCtx, "checkout.purchase_history.link_failed", err)
		}
	}

	if e.mirror != nil {
		e.mirror.Clear(ctx, user.ID)
	}

	return invoices.Display(invoices.FromModel(invoice))
}

func (e *Engine) savePaymentMethod(ctx context.Context, user *models.User, card paymentmethods.Card) {
	if e.paymentMethods == nil || user.Role.IsAdmin() {
		return
	}
	if _, err := e.paymentMethods.Save(ctx, user.ID, user.Role, card); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "checkout.payment_method.save_failed")
	}
}

func buildInvoice(
	user *models.User,
	method enums.PaymentMethod,
	card paymentmethods.Card,
	payment PaymentInput,
	lines []types.CartLine,
	totals pricing.Totals,
	issuedAt time.Time,
) *models.Invoice {
	customer := card.Name
	if customer == "" {
		customer = user.Username
	}
	if customer == "" {
		customer = "Customer"
	}
	billing := strings.TrimSpace(payment.Billing)
	if billing == "" {
		billing = user.Address
	}

	items := make([]models.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.InvoiceItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    pricing.Round2(line.Price),
			Subtotal: pricing.LineSubtotal(line.Price, line.Quantity),
			Image:    line.Image,
		})
	}

	invoice := &models.Invoice{
		UserID:        user.ID,
		Number:        invoices.NumberFor(issuedAt),
		IssuedAt:      issuedAt,
		CustomerName:  customer,
		Billing:       billing,
		PaymentMethod: method.InvoiceLabel(),
		Subtotal:      totals.Subtotal,
		GST:           totals.GST,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		Items:         items,
	}
	if !method.IsQR() {
		invoice.PaymentLast4 = card.Last4
	}
	return invoice
}

func cartChangedMessage(removed []string) string {
	return fmt.Sprintf("Some items are no longer available and were removed from your cart: %s.", strings.Join(removed, ", "))
}

func lineName(item types.CartLine) string {
	if item.Name != "" {
		return item.Name
	}
	return fmt.Sprintf("Item %d", item.ProductID)
}

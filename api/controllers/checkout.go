package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/checkout"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const pathPayment = "/payment"

type checkoutEngine interface {
	ShowPayment(ctx context.Context, userID uint64, state cart.State) (*checkout.PaymentPage, error)
	Checkout(ctx context.Context, req checkout.Request) (checkout.Result, error)
}

// CheckoutRedirect sends the cart's checkout button to the payment form.
func CheckoutRedirect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectTo(w, r, pathPayment)
	}
}

func PaymentPage(engine checkoutEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		page, err := engine.ShowPayment(r.Context(), sess.State.UserID(), cartState(sess))
		if err != nil {
			redirectWithError(w, r, sess, pathCart, flashError(r.Context(), logg, err, "checkout.payment_page.failed"))
			return
		}
		if page.State == checkout.StateRejected {
			sess.State.AddCartError(page.Message)
			redirectTo(w, r, pathCart)
			return
		}
		renderPage(w, r, logg, page)
	}
}

func ProcessPayment(engine checkoutEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		var input checkout.PaymentInput
		if err := validators.DecodeJSONForm(r, &input); err != nil {
			redirectWithError(w, r, sess, pathPayment, flashError(ctx, logg, err, "checkout.decode_failed"))
			return
		}

		result, err := engine.Checkout(ctx, checkout.Request{
			UserID:  sess.State.UserID(),
			Cart:    cartState(sess),
			Payment: input,
		})
		if err != nil {
			redirectWithError(w, r, sess, pathPayment, flashError(ctx, logg, err, "checkout.failed"))
			return
		}

		switch result.State {
		case checkout.StateAccountMissing:
			sess.Destroy()
			redirectTo(w, r, middleware.LoginPath)
		case checkout.StateCartChanged:
			sess.State.Cart = result.Cart.Items
			sess.State.AddCartError(result.Message)
			redirectTo(w, r, pathCart)
		case checkout.StateCompleted:
			sess.State.Cart = result.Cart.Items
			if result.Invoice != nil && result.Invoice.Saved {
				sess.State.LastInvoiceID = result.Invoice.ID
				redirectWithSuccess(w, r, sess, invoicePath(result.Invoice.ID), result.Message)
				return
			}
			sess.State.AddSuccess(result.Message)
			renderPage(w, r, logg, invoicePage{Invoice: result.Invoice})
		default:
			if result.Message == checkout.MsgCartEmpty {
				sess.State.AddCartError(result.Message)
				redirectTo(w, r, pathCart)
				return
			}
			redirectWithError(w, r, sess, pathPayment, result.Message)
		}
	}
}

func invoicePath(id uint64) string {
	return pathInvoice + "/" + strconv.FormatUint(id, 10)
}

package controllers

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const (
	pathCart           = "/cart"
	msgProductNotFound = "Product not found"
)

type cartManager interface {
	View(state cart.State, search string) cart.View
	AddItem(ctx context.Context, owner uint64, state cart.State, productID uint64, requestedQty int) (cart.State, cart.Outcome, error)
	UpdateQuantity(ctx context.Context, owner uint64, state cart.State, productID uint64, requestedQty int) (cart.State, cart.Outcome, error)
	RemoveItem(ctx context.Context, owner uint64, state cart.State, productID uint64) (cart.State, cart.Outcome, error)
	Clear(ctx context.Context, owner uint64, state cart.State) (cart.State, cart.Outcome)
}

type cartAddRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartPageView struct {
	Cart     cart.View `json:"cart"`
	Errors   []string  `json:"errors"`
	Messages []string  `json:"messages"`
}

func cartState(sess *session.Session) cart.State {
	return cart.State{Items: sess.State.Cart}
}

// applyCartOutcome stores the new cart and its feedback. Partial successes are
// shown as warnings.
func applyCartOutcome(sess *session.Session, next cart.State, outcome cart.Outcome) {
	sess.State.Cart = next.Items
	if outcome.Partial {
		sess.State.AddCartError(outcome.Message)
		return
	}
	sess.State.AddCartMessage(outcome.Message)
}

func CartView(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		view := manager.View(cartState(sess), validators.SearchQuery(r, "search"))
		errs, msgs := sess.State.ConsumeCartFeedback()
		renderPage(w, r, logg, cartPageView{Cart: view, Errors: errs, Messages: msgs})
	}
}

func CartAdd(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var req cartAddRequest
		if err := validators.DecodeJSONForm(r, &req); err != nil || req.ProductID == 0 {
			sess.State.AddCartError(msgProductNotFound)
			redirectTo(w, r, pathShopping)
			return
		}

		next, outcome, err := manager.AddItem(r.Context(), sess.State.UserID(), cartState(sess), req.ProductID, req.Quantity)
		if err != nil {
			sess.State.AddCartError(flashError(r.Context(), logg, err, "cart.add.failed"))
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				redirectTo(w, r, pathShopping)
				return
			}
			redirectTo(w, r, pathCart)
			return
		}
		applyCartOutcome(sess, next, outcome)
		redirectTo(w, r, pathCart)
	}
}

func CartUpdate(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			sess.State.AddCartError(cart.MsgItemNotFound)
			redirectTo(w, r, pathCart)
			return
		}

		var req cartQuantityRequest
		if err := validators.DecodeJSONForm(r, &req); err != nil {
			sess.State.AddCartError(flashError(r.Context(), logg, err, "cart.update.decode_failed"))
			redirectTo(w, r, pathCart)
			return
		}

		next, outcome, err := manager.UpdateQuantity(r.Context(), sess.State.UserID(), cartState(sess), productID, req.Quantity)
		if err != nil {
			sess.State.AddCartError(flashError(r.Context(), logg, err, "cart.update.failed"))
			redirectTo(w, r, pathCart)
			return
		}
		applyCartOutcome(sess, next, outcome)
		redirectTo(w, r, pathCart)
	}
}

func CartRemove(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			sess.State.AddCartError(cart.MsgItemNotFound)
			redirectTo(w, r, pathCart)
			return
		}

		next, outcome, err := manager.RemoveItem(r.Context(), sess.State.UserID(), cartState(sess), productID)
		if err != nil {
			sess.State.AddCartError(flashError(r.Context(), logg, err, "cart.remove.failed"))
			redirectTo(w, r, pathCart)
			return
		}
		applyCartOutcome(sess, next, outcome)
		redirectTo(w, r, pathCart)
	}
}

func CartClear(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		next, outcome := manager.Clear(r.Context(), sess.State.UserID(), cartState(sess))
		applyCartOutcome(sess, next, outcome)
		redirectTo(w, r, pathCart)
	}
}

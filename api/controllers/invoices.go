package controllers

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/purchasehistory"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const (
	pathInvoice         = "/invoice"
	pathPurchaseHistory = "/purchase-history"
)

type invoiceReader interface {
	Get(ctx context.Context, id uint64, userID *uint64) (*invoices.InvoiceDTO, error)
	Latest(ctx context.Context, userID uint64) (*invoices.InvoiceDTO, error)
}

type historyLister interface {
	List(ctx context.Context, userID uint64, isAdmin bool, search string) ([]purchasehistory.EntryDTO, error)
}

type invoicePage struct {
	Invoice *invoices.InvoiceDTO `json:"invoice"`
}

type purchaseHistoryPage struct {
	Entries  []purchasehistory.EntryDTO `json:"entries"`
	Search   string                     `json:"search"`
	AllUsers bool                       `json:"allUsers"`
}

// invoiceOwner scopes invoice reads to the shopper. Admins may open any invoice.
func invoiceOwner(sess *session.Session) *uint64 {
	if sess.State.User.IsAdmin() {
		return nil
	}
	id := sess.State.UserID()
	return &id
}

func InvoiceShow(svc invoiceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathPurchaseHistory, invoices.MsgNotFound)
			return
		}
		invoice, err := svc.Get(r.Context(), id, invoiceOwner(sess))
		if err != nil {
			redirectWithError(w, r, sess, pathPurchaseHistory, flashError(r.Context(), logg, err, "invoice.load_failed"))
			return
		}
		renderPage(w, r, logg, invoicePage{Invoice: invoice})
	}
}

// InvoiceLatest opens the invoice cached by the last checkout, falling back to
// the shopper's newest stored invoice.
func InvoiceLatest(svc invoiceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()
		userID := sess.State.UserID()

		if cached := sess.State.LastInvoiceID; cached != 0 {
			invoice, err := svc.Get(ctx, cached, &userID)
			if err == nil {
				renderPage(w, r, logg, invoicePage{Invoice: invoice})
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				redirectWithError(w, r, sess, pathShopping, flashError(ctx, logg, err, "invoice.latest.load_failed"))
				return
			}
			sess.State.LastInvoiceID = 0
		}

		invoice, err := svc.Latest(ctx, userID)
		if err != nil {
			redirectWithError(w, r, sess, pathShopping, flashError(ctx, logg, err, "invoice.latest.load_failed"))
			return
		}
		sess.State.LastInvoiceID = invoice.ID
		renderPage(w, r, logg, invoicePage{Invoice: invoice})
	}
}

func PurchaseHistory(svc historyLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		search := validators.SearchQuery(r, "search")
		isAdmin := sess.State.User.IsAdmin()
		entries, err := svc.List(r.Context(), sess.State.UserID(), isAdmin, search)
		if err != nil {
			sess.State.AddError(flashError(r.Context(), logg, err, "purchase_history.list_failed"))
			entries = []purchasehistory.EntryDTO{}
		}
		renderPage(w, r, logg, purchaseHistoryPage{Entries: entries, Search: search, AllUsers: isAdmin})
	}
}

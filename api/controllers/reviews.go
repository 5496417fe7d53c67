package controllers

import (
	"fmt"
	"net/http"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/reviews"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

// ReviewsCreate posts a review and returns to the product page.
func ReviewsCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		user := sess.State.User

		productID, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathShopping, "Product not found")
			return
		}
		back := fmt.Sprintf("/product/%d", productID)

		var input reviews.CreateReviewInput
		if err := validators.DecodeJSONForm(r, &input); err != nil {
			redirectWithError(w, r, sess, back, flashError(r.Context(), logg, err, "reviews.create.decode_failed"))
			return
		}

		if _, err := svc.Create(r.Context(), user.ID, user.Role, productID, input); err != nil {
			redirectWithError(w, r, sess, back, flashError(r.Context(), logg, err, "reviews.create.failed"))
			return
		}
		redirectWithSuccess(w, r, sess, back, "Thanks for your review!")
	}
}

// ReviewsMine lists the current user's reviews.
func ReviewsMine(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.CurrentUser(r.Context())
		list, err := svc.ListForUser(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderPage(w, r, logg, map[string]any{"reviews": list})
	}
}

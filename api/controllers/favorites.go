package controllers

import (
	"net/http"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/favorites"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const pathFavorites = "/favorites"

func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.CurrentUser(r.Context())
		products, err := svc.Products(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderPage(w, r, logg, map[string]any{"products": products})
	}
}

// FavoritesSet adds (favorite=true) or removes a favorite, then returns to the
// referring page.
func FavoritesSet(svc favorites.Service, favorite bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		back := sameSiteReferer(r, pathFavorites)

		productID, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			redirectWithError(w, r, sess, back, "Product not found")
			return
		}
		if err := svc.Set(r.Context(), sess.State.User.ID, productID, favorite); err != nil {
			redirectWithError(w, r, sess, back, flashError(r.Context(), logg, err, "favorites.set.failed"))
			return
		}
		responses.Redirect(w, r, back)
	}
}

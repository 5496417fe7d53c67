package middleware

import (
	"net/http"

	"github.com/freshmart/storefront-backend/api/responses"
)

// LoginPath is where anonymous visitors are sent from protected pages.
const LoginPath = "/login"

// RequireUser redirects anonymous visitors to the login page.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r.Context()) == nil {
				responses.Redirect(w, r, LoginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

// RequireRole answers 403 unless the session user holds role. Anonymous
// visitors are redirected to the login page first.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				responses.Redirect(w, r, LoginPath)
				return
			}
			if user.Role != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

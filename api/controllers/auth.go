package controllers

import (
	"net/http"

	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/auth"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const (
	pathRegister  = "/register"
	pathLogin     = "/login"
	pathShopping  = "/shopping"
	pathDashboard = "/admin/dashboard"
)

func AuthRegisterPage(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, r, logg, map[string]string{"title": "Register"})
	}
}

func AuthLoginPage(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, r, logg, map[string]string{"title": "Login"})
	}
}

// AuthRegister opens an account and signs the visitor in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var req auth.RegisterRequest
		if err := validators.DecodeJSONForm(r, &req); err != nil {
			redirectWithError(w, r, sess, pathRegister, flashError(r.Context(), logg, err, "auth.register.decode_failed"))
			return
		}

		resp, err := svc.Register(r.Context(), req)
		if err != nil {
			redirectWithError(w, r, sess, pathRegister, flashError(r.Context(), logg, err, "auth.register.failed"))
			return
		}

		sess.Regenerate()
		sess.State.User = sessionUser(resp.User)
		ctx := logg.WithUserID(r.Context(), resp.User.ID)
		logg.Info(ctx, "auth.register.succeeded")
		redirectWithSuccess(w, r, sess, pathShopping, "Welcome, "+resp.User.Username+"!")
	}
}

// AuthLogin verifies credentials by username or email.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONForm(r, &req); err != nil {
			redirectWithError(w, r, sess, pathLogin, flashError(r.Context(), logg, err, "auth.login.decode_failed"))
			return
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			redirectWithError(w, r, sess, pathLogin, flashError(r.Context(), logg, err, "auth.login.failed"))
			return
		}

		sess.Regenerate()
		user := sessionUser(resp.User)
		sess.State.User = user
		ctx := logg.WithUserID(r.Context(), user.ID)
		logg.Info(logg.WithRole(ctx, string(user.Role)), "auth.login.succeeded")

		if user.IsAdmin() {
			redirectWithSuccess(w, r, sess, pathDashboard, "Welcome back, "+user.Username+"!")
			return
		}
		redirectWithSuccess(w, r, sess, pathShopping, "Welcome back, "+user.Username+"!")
	}
}

// AuthLogout destroys the session, cart included.
func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		sess.Destroy()
		responses.Redirect(w, r, pathLogin)
	}
}

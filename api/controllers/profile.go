package controllers

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const pathProfile = "/profile"

type profileService interface {
	Profile(ctx context.Context, id uint64) (*users.Profile, error)
	UpdateProfile(ctx context.Context, id uint64, input users.ProfileInput) (*users.UserDTO, error)
	ChangePassword(ctx context.Context, id uint64, input users.PasswordChangeInput) error
}

type paymentMethodService interface {
	Save(ctx context.Context, userID uint64, role enums.Role, card paymentmethods.Card) (*paymentmethods.PaymentMethodDTO, error)
	Remove(ctx context.Context, userID uint64) error
}

func ProfileShow(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		profile, err := svc.Profile(r.Context(), sess.State.UserID())
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				sess.Destroy()
				redirectTo(w, r, middleware.LoginPath)
				return
			}
			redirectWithError(w, r, sess, pathShopping, flashError(r.Context(), logg, err, "profile.load_failed"))
			return
		}
		renderPage(w, r, logg, profile)
	}
}

func ProfileUpdate(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var input users.ProfileInput
		if err := validators.DecodeJSONForm(r, &input); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.decode_failed"))
			return
		}
		updated, err := svc.UpdateProfile(r.Context(), sess.State.UserID(), input)
		if err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.update_failed"))
			return
		}
		sess.State.User = sessionUser(updated)
		redirectWithSuccess(w, r, sess, pathProfile, "Profile updated.")
	}
}

func ProfilePassword(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var input users.PasswordChangeInput
		if err := validators.DecodeJSONForm(r, &input); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.password.decode_failed"))
			return
		}
		if err := svc.ChangePassword(r.Context(), sess.State.UserID(), input); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.password.failed"))
			return
		}
		logg.Info(r.Context(), "profile.password.changed")
		redirectWithSuccess(w, r, sess, pathProfile, "Password updated.")
	}
}

func ProfileSavePaymentMethod(svc paymentMethodService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var input paymentmethods.CardInput
		if err := validators.DecodeJSONForm(r, &input); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.payment_method.decode_failed"))
			return
		}
		card, err := paymentmethods.ValidateCard(input)
		if err != nil {
			redirectWithError(w, r, sess, pathProfile, pkgerrors.PublicMessage(err))
			return
		}
		if _, err := svc.Save(r.Context(), sess.State.UserID(), sess.State.User.Role, card); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.payment_method.save_failed"))
			return
		}
		redirectWithSuccess(w, r, sess, pathProfile, "Payment method saved.")
	}
}

func ProfileDeletePaymentMethod(svc paymentMethodService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Remove(r.Context(), sess.State.UserID()); err != nil {
			redirectWithError(w, r, sess, pathProfile, flashError(r.Context(), logg, err, "profile.payment_method.remove_failed"))
			return
		}
		redirectWithSuccess(w, r, sess, pathProfile, "Payment method removed.")
	}
}

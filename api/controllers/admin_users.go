package controllers

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

const pathAdminUsers = "/admin/users"

type userAdmin interface {
	List(ctx context.Context) ([]users.UserDTO, error)
	Promote(ctx context.Context, actorID, targetID uint64) error
	Delete(ctx context.Context, actorID, targetID uint64) error
}

type adminUsersPage struct {
	Users []users.UserDTO `json:"users"`
}

func AdminUsersList(svc userAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			sess.State.AddError(flashError(r.Context(), logg, err, "admin.users.list_failed"))
			list = []users.UserDTO{}
		}
		renderPage(w, r, logg, adminUsersPage{Users: list})
	}
}

func AdminUsersPromote(svc userAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		targetID, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathAdminUsers, "User not found")
			return
		}
		ctx := logg.WithField(r.Context(), "target_user_id", targetID)
		if err := svc.Promote(ctx, sess.State.UserID(), targetID); err != nil {
			redirectWithError(w, r, sess, pathAdminUsers, flashError(ctx, logg, err, "admin.users.promote_failed"))
			return
		}
		logg.Info(ctx, "admin.users.promoted")
		redirectWithSuccess(w, r, sess, pathAdminUsers, "User promoted to admin.")
	}
}

func AdminUsersDelete(svc userAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		targetID, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathAdminUsers, "User not found")
			return
		}
		ctx := logg.WithField(r.Context(), "target_user_id", targetID)
		if err := svc.Delete(ctx, sess.State.UserID(), targetID); err != nil {
			redirectWithError(w, r, sess, pathAdminUsers, flashError(ctx, logg, err, "admin.users.delete_failed"))
			return
		}
		logg.Info(ctx, "admin.users.deleted")
		redirectWithSuccess(w, r, sess, pathAdminUsers, "User deleted.")
	}
}

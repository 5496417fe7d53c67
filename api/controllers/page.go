package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

// pageView wraps every GET view with the visitor and any pending flash.
type pageView struct {
	User  *session.User `json:"user"`
	Flash session.Flash `json:"flash"`
	View  any           `json:"view,omitempty"`
}

func currentSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Session, bool) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
		return nil, false
	}
	return sess, true
}

// renderPage writes view and consumes the flash it displays.
func renderPage(w http.ResponseWriter, r *http.Request, logg *logger.Logger, view any) {
	sess, ok := currentSession(w, r, logg)
	if !ok {
		return
	}
	responses.WriteSuccess(w, pageView{
		User:  sess.State.User,
		Flash: sess.State.ConsumeFlash(),
		View:  view,
	})
}

func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	responses.Redirect(w, r, target)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, sess *session.Session, target, msg string) {
	sess.State.AddError(msg)
	responses.Redirect(w, r, target)
}

func redirectWithSuccess(w http.ResponseWriter, r *http.Request, sess *session.Session, target, msg string) {
	sess.State.AddSuccess(msg)
	responses.Redirect(w, r, target)
}

// flashError turns a domain error into the message shown on the next page and
// logs failures the shopper cannot act on.
func flashError(ctx context.Context, logg *logger.Logger, err error, event string) string {
	typed := pkgerrors.As(err)
	if typed == nil || pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, event, err)
	}
	return pkgerrors.PublicMessage(err)
}

func sessionUser(u *users.UserDTO) *session.User {
	if u == nil {
		return nil
	}
	return &session.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Contact:  u.Contact,
		Address:  u.Address,
	}
}

// sameSiteReferer returns the referring path when it points back at this
// site, or fallback.
func sameSiteReferer(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return fallback
	}
	if ref.Host != "" && ref.Host != r.Host {
		return fallback
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

package middleware

import (
	"context"
	"net/http"

	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/config"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

type sessionManager interface {
	Load(ctx context.Context, token string) (*session.Session, error)
	Commit(ctx context.Context, sess *session.Session) error
	Persisted(sess *session.Session) bool
	Token(sess *session.Session) (string, error)
	Config() config.SessionConfig
}

// Session loads the browser session from its cookie and persists it before the
// first byte of the response is written, so a redirect never races the store.
func Session(manager sessionManager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := manager.Config()
			ctx := r.Context()

			token := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				token = cookie.Value
			}

			sess, err := manager.Load(ctx, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}

			ctx = WithSession(ctx, sess)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sess.ID)
				if user := sess.State.User; user != nil {
					ctx = logg.WithUserID(ctx, user.ID)
					ctx = logg.WithRole(ctx, string(user.Role))
				}
			}

			sw := &sessionWriter{ResponseWriter: w}
			sw.commit = func() {
				commitSession(ctx, manager, cfg, sess, w, logg)
			}

			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.ensureCommitted()
		})
	}
}

func commitSession(ctx context.Context, manager sessionManager, cfg config.SessionConfig, sess *session.Session, w http.ResponseWriter, logg *logger.Logger) {
	if err := manager.Commit(ctx, sess); err != nil && logg != nil {
		logg.Error(ctx, "session.commit_failed", err)
	}

	if sess.Destroyed() {
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		return
	}
	if !manager.Persisted(sess) {
		return
	}

	token, err := manager.Token(sess)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "session.token_failed", err)
		}
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (s *sessionWriter) ensureCommitted() {
	if s.committed {
		return
	}
	s.committed = true
	s.commit()
}

func (s *sessionWriter) WriteHeader(status int) {
	s.ensureCommitted()
	s.ResponseWriter.WriteHeader(status)
}

func (s *sessionWriter) Write(b []byte) (int, error) {
	s.ensureCommitted()
	return s.ResponseWriter.Write(b)
}

func (s *sessionWriter) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

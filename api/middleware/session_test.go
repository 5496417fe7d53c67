package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/auth/session/sessiontest"
	"github.com/freshmart/storefront-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessiontest.Config().CookieName {
			return c
		}
	}
	return nil
}

func TestSessionPersistsBeforeRedirect(t *testing.T) {
	manager, store, err := sessiontest.NewManager()
	require.NoError(t, err)

	login := Session(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		sess.Regenerate()
		sess.State.User = &session.User{ID: 7, Username: "mira", Role: enums.RoleUser}
		http.Redirect(w, r, "/shopping", http.StatusSeeOther)
		assert.Equal(t, 1, store.Len(), "session must be stored before the redirect is sent")
	}))

	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var seen *session.User
	page := Session(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/shopping", nil)
	req.AddCookie(cookie)
	page.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(7), seen.ID)
}

func TestSessionAnonymousEmptyIsNotStored(t *testing.T) {
	manager, store, err := sessiontest.NewManager()
	require.NoError(t, err)

	handler := Session(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, 0, store.Len())
	assert.Nil(t, sessionCookie(t, rec))
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	manager, store, err := sessiontest.NewManager()
	require.NoError(t, err)

	seed := Session(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).State.AddSuccess("hello")
	}))
	rec := httptest.NewRecorder()
	seed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	require.Equal(t, 1, store.Len())

	logout := Session(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).Destroy()
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}))
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	logout.ServeHTTP(rec, req)

	assert.Equal(t, 0, store.Len())
	expired := sessionCookie(t, rec)
	require.NotNil(t, expired)
	assert.Less(t, expired.MaxAge, 0)
}

func TestRequireUserAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(h http.Handler, user *session.User) *httptest.ResponseRecorder {
		sess := &session.Session{ID: "s1"}
		sess.State.User = user
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req = req.WithContext(WithSession(req.Context(), sess))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	anon := serve(RequireUser()(ok), nil)
	assert.Equal(t, http.StatusSeeOther, anon.Code)
	assert.Equal(t, LoginPath, anon.Header().Get("Location"))

	shopper := &session.User{ID: 1, Role: enums.RoleUser}
	assert.Equal(t, http.StatusNoContent, serve(RequireUser()(ok), shopper).Code)
	assert.Equal(t, http.StatusForbidden, serve(RequireRole(enums.RoleAdmin, nil)(ok), shopper).Code)
	assert.Equal(t, http.StatusSeeOther, serve(RequireRole(enums.RoleAdmin, nil)(ok), nil).Code)

	admin := &session.User{ID: 2, Role: enums.RoleAdmin}
	assert.Equal(t, http.StatusNoContent, serve(RequireRole(enums.RoleAdmin, nil)(ok), admin).Code)
}

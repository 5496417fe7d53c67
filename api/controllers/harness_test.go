package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/auth/session/sessiontest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// harness drives handlers through the real session middleware and keeps the
// browser cookie between requests.
type harness struct {
	t      *testing.T
	router chi.Router
	cookie *http.Cookie
	login  *session.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	manager, _, err := sessiontest.NewManager()
	require.NoError(t, err)

	h := &harness{t: t, router: chi.NewRouter()}
	h.router.Use(middleware.Session(manager, nil))
	h.router.Post("/test/login", func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		sess.Regenerate()
		sess.State.User = h.login
		w.WriteHeader(http.StatusNoContent)
	})
	h.router.Get("/test/session", func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(sess.State)
	})
	return h
}

func (h *harness) signIn(user session.User) {
	h.t.Helper()
	h.login = &user
	rec := h.do(http.MethodPost, "/test/login", nil)
	require.Equal(h.t, http.StatusNoContent, rec.Code)
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(h.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name != sessiontest.Config().CookieName {
			continue
		}
		if c.MaxAge < 0 {
			h.cookie = nil
		} else {
			h.cookie = c
		}
	}
	return rec
}

// state returns the stored session state as the next request would see it.
func (h *harness) state() session.State {
	h.t.Helper()
	rec := h.do(http.MethodGet, "/test/session", nil)
	var state session.State
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

// page decodes a rendered page envelope into view.
func page(t *testing.T, rec *httptest.ResponseRecorder, view any) session.Flash {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var envelope struct {
		Data struct {
			Flash session.Flash   `json:"flash"`
			View  json.RawMessage `json:"view"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if view != nil {
		require.NoError(t, json.Unmarshal(envelope.Data.View, view))
	}
	return envelope.Data.Flash
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, target string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, target, rec.Header().Get("Location"))
}

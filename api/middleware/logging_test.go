package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/storefront-backend/pkg/logger"
)

type observed struct {
	route  string
	status int
}

type recordingObserver struct{ calls []observed }

func (o *recordingObserver) ObserveRequest(_ string, route string, status int, _ time.Duration) {
	o.calls = append(o.calls, observed{route: route, status: status})
}

func TestLoggingRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})
	obs := &recordingObserver{}

	r := chi.NewRouter()
	r.Use(Logging(logg, obs))
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/images/*", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/42", nil))
	require.Len(t, obs.calls, 1)
	assert.Equal(t, observed{route: "/products/{id}", status: http.StatusNotFound}, obs.calls[0])
	assert.Contains(t, buf.String(), `"route":"/products/{id}"`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/images/milk.png", nil))
	require.Len(t, obs.calls, 2)
	assert.Equal(t, http.StatusOK, obs.calls[1].status)
	assert.Empty(t, buf.String(), "image requests are not logged")
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/config"
	"github.com/Napiersnotes/Dandelions/internal/httpserver/middleware"
	"github.com/Napiersnotes/Dandelions/internal/observability"
)

func TestChain_Order(t *testing.T) {
	var order []string

	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(tag("outer"), tag("inner"))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestTrace_InjectsIdentifiers(t *testing.T) {
	var sawTraceID string
	handler := middleware.Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTraceID = observability.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/generate", nil))

	require.NotEmpty(t, sawTraceID)
	require.Equal(t, sawTraceID, rec.Header().Get("X-Trace-Id"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://dashboard.example"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}

	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
		req.Header.Set("Origin", "https://dashboard.example")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
		req.Header.Set("Origin", "https://evil.example")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("nil config is a no-op", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middleware.CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_OrderIsOutsideIn(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("incoming id is honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "trace-abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc-123", seen)
		assert.Equal(t, "trace-abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("bad incoming id is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad\x01id")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.NotEqual(t, "bad\x01id", seen)
		require.NotEmpty(t, seen)
	})
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
}

func TestRecovery_PropagatesAbortHandler(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins: []string{"https://shop.example.com"},
		AllowHeaders: []string{"Content-Type", "X-Cart-Session"},
		MaxAge:       600,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/carts", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, X-Cart-Session", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_DisallowedOriginGetsNoHeaders(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	// Request still reaches the handler; the browser enforces the block.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardAndCredentials(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		h := CORS(CORSConfig{})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials echo the origin", func(t *testing.T) {
		h := CORS(CORSConfig{
			AllowOrigins:     []string{"https://shop.example.com"},
			AllowCredentials: true,
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://SHOP.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		// Matching is case insensitive but the configured spelling wins.
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

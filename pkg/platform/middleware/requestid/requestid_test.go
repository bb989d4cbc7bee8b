package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"aidledger/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("reuses inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(Header))
	})

	t.Run("mints id when missing or oversized", func(t *testing.T) {
		for _, inbound := range []string{"", strings.Repeat("x", 500)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(Header, inbound)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.NotEqual(t, inbound, seen)
			assert.Equal(t, seen, rec.Header().Get(Header))
		}
	})
}

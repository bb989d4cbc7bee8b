// Package requestid propagates a correlation ID through the request context.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"aidledger/pkg/requestcontext"
)

// Header is the inbound and outbound correlation header.
const Header = "X-Request-ID"

const maxInboundLength = 128

// Middleware reuses a well-formed inbound X-Request-ID or mints a new one,
// echoes it on the response, and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxInboundLength || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

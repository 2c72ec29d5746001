package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey keeps middleware context values from colliding with other
// packages' keys.
type contextKey string

const (
	// RequestIDKey is the context key request IDs travel under.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the header request IDs arrive in and are echoed to.
	RequestIDHeader = "X-Request-ID"
)

// RequestID tags every request with an ID for log correlation across the
// handler, error handler, and access log. An inbound X-Request-ID is kept
// and echoed back; otherwise a fresh UUID is issued.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

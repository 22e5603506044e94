package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// CorrelationHeader is the header carrying the request's correlation ID,
// shared with clients and with the response.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationID attaches a correlation ID to every request. A caller may
// supply one in the header, but only a well-formed UUID is accepted; every
// identifier in this system is a UUID and the IDs end up in log queries,
// so arbitrary caller strings are replaced rather than propagated. The
// final value is stored on the request context and echoed back in the
// response header.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), correlationIDKey, id)
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID retrieves the correlation ID stored by the middleware.
// Returns an empty string if the middleware was not applied.
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}

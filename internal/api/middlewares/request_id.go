package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// RequestID sets the request_id carried by log lines and problem bodies. An
// incoming X-Request-ID is kept only when it is a UUID, in canonical lower-case
// form; anything else is replaced by a fresh time-ordered UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := canonicalRequestID(r.Header.Get("X-Request-ID"))
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, rid))
		r.Header.Set("X-Request-ID", rid)
		w.Header().Set("X-Request-ID", rid)

		next.ServeHTTP(w, r)
	})
}

func canonicalRequestID(incoming string) string {
	if id, err := uuid.Parse(incoming); err == nil && id != uuid.Nil && len(incoming) == 36 {
		return id.String()
	}
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// GetRequestID returns the id assigned by RequestID, or "" outside it.
func GetRequestID(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeyRequestID).(string)
	return v
}

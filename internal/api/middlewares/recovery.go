package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/rs/zerolog"
)

// Recovery turns a panic into a 500 problem and logs the stack.
func Recovery(log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Str("request_id", GetRequestID(r)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

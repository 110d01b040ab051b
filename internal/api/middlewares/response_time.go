package middlewares

import (
	"net/http"
	"strconv"
	"time"
)

// timingWriter adds a Server-Timing "app" metric, in milliseconds, as the
// headers go out. The body is not covered.
type timingWriter struct {
	http.ResponseWriter
	start time.Time
	done  bool
}

func (w *timingWriter) stamp() {
	if w.done {
		return
	}
	w.done = true
	ms := float64(time.Since(w.start).Microseconds()) / 1000
	w.Header().Add("Server-Timing", "app;dur="+strconv.FormatFloat(ms, 'f', 3, 64))
}

func (w *timingWriter) WriteHeader(code int) {
	if code >= 200 {
		w.stamp()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// ResponseTime reports handler time in a Server-Timing header.
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timingWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		tw.stamp()
	})
}

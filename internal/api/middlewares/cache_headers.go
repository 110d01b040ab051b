package middlewares

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

type bufferedWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.buf.Write(p)
}

// CacheHeaders adds validation caching to successful GET and HEAD responses: a
// strong ETag over the body, Cache-Control with maxAge and must-revalidate, and
// 304 when If-None-Match matches. Everything else is marked no-store.
func CacheHeaders(maxAge time.Duration) Middleware {
	cacheControl := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds())) + ", must-revalidate"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Cache-Control", "no-store")
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)
			if bw.status == 0 {
				// nothing written
				return
			}

			h := w.Header()
			h.Add("Vary", "Accept")
			if bw.status != http.StatusOK {
				h.Set("Cache-Control", "no-store")
				w.WriteHeader(bw.status)
				_, _ = w.Write(bw.buf.Bytes())
				return
			}

			etag := `"` + strconv.FormatUint(xxhash.Sum64(bw.buf.Bytes()), 16) + `"`
			h.Set("ETag", etag)
			h.Set("Cache-Control", cacheControl)
			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				h.Del("Content-Type")
				h.Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(bw.buf.Bytes())
		})
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

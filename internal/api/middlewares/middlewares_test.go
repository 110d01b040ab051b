package middlewares_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	mw "github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func TestBodySizeLimit_RejectsLargeBodies(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	wrapped := mw.BodySizeLimit(1024)(handler)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		req := httptest.NewRequest(method, "/test", bytes.NewReader(bytes.Repeat([]byte("a"), 2048)))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s: expected 413, got %d", method, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small body"))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for small body, got %d", rec.Code)
	}
}

func TestBodySizeLimit_OnlyAppliesToMutatingMethods(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			t.Errorf("GET body should not be limited: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/test", bytes.NewReader(bytes.Repeat([]byte("a"), 2048)))
	rec := httptest.NewRecorder()
	mw.BodySizeLimit(1024)(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET, got %d", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})
	handler := mw.RequestID(mw.Recovery(zerolog.Nop())(panicHandler))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Expected problem content type, got %q", ct)
	}
	if strings.Contains(rec.Body.String(), "test panic") {
		t.Errorf("panic value leaked to client: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

func TestRecoveryDoesNotInterceptNormalRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	mw.Recovery(zerolog.Nop())(okHandler("success")).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Errorf("Expected 200 success, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = mw.GetRequestID(r)
	}))

	tests := []struct {
		name     string
		incoming string
		want     string // "" means a fresh id
	}{
		{"generated", "", ""},
		{"uuid kept", "0b5e0c1a-6f4e-4d8a-9a51-2d7c3f1e9b20", "0b5e0c1a-6f4e-4d8a-9a51-2d7c3f1e9b20"},
		{"uuid canonicalised", "0B5E0C1A-6F4E-4D8A-9A51-2D7C3F1E9B20", "0b5e0c1a-6f4e-4d8a-9a51-2d7c3f1e9b20"},
		{"free text", "custom-request-id", ""},
		{"log injection", "abc\n{\"level\":\"error\"}", ""},
		{"urn form", "urn:uuid:0b5e0c1a-6f4e-4d8a-9a51-2d7c3f1e9b20", ""},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			rid := rec.Header().Get("X-Request-ID")
			if rid == "" || rid != seen {
				t.Fatalf("response id %q, handler saw %q", rid, seen)
			}
			if tt.want != "" {
				if rid != tt.want {
					t.Errorf("incoming %q: got %q, want %q", tt.incoming, rid, tt.want)
				}
				return
			}
			id, err := uuid.Parse(rid)
			if err != nil || rid == tt.incoming {
				t.Fatalf("incoming %q: expected a fresh uuid, got %q", tt.incoming, rid)
			}
			if id.Version() != 7 {
				t.Errorf("fresh id %q is version %d, want 7", rid, id.Version())
			}
		})
	}
}

func TestGetRequestID_OutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "spoofed")
	if got := mw.GetRequestID(req); got != "" {
		t.Errorf("expected no id outside RequestID, got %q", got)
	}
}

func TestResponseTime(t *testing.T) {
	for name, h := range map[string]http.Handler{
		"write":   okHandler("test response"),
		"nothing": http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
		"slow": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(5 * time.Millisecond)
			w.WriteHeader(http.StatusNoContent)
		}),
	} {
		rec := httptest.NewRecorder()
		mw.ResponseTime(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		values := rec.Result().Header.Values("Server-Timing")
		if len(values) != 1 {
			t.Fatalf("%s: want one Server-Timing value, got %q", name, values)
		}
		dur, ok := strings.CutPrefix(values[0], "app;dur=")
		if !ok {
			t.Fatalf("%s: bad Server-Timing %q", name, values[0])
		}
		ms, err := strconv.ParseFloat(dur, 64)
		if err != nil || ms < 0 {
			t.Errorf("%s: bad duration %q: %v", name, dur, err)
		}
		if name == "slow" && ms < 5 {
			t.Errorf("slow: duration %vms shorter than the handler sleep", ms)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	mw.SecurityHeaders(false)(okHandler("")).ServeHTTP(rec, req)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Strict-Transport-Security", ""},
		{"Cross-Origin-Opener-Policy", ""},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: expected %q, got %q", tt.header, tt.expected, got)
		}
	}
}

func TestSecurityHeaders_HSTSOverHTTPSAndStrict(t *testing.T) {
	// httptest sets r.TLS for https URLs
	req := httptest.NewRequest(http.MethodGet, "https://library.test/test", nil)
	rec := httptest.NewRecorder()
	mw.SecurityHeaders(true)(okHandler("")).ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS over TLS")
	}
	if rec.Header().Get("Cross-Origin-Opener-Policy") != "same-origin" {
		t.Error("Expected COOP in strict mode")
	}
}

func TestCompression(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	mw.Compression(okHandler("hello hello hello")).ServeHTTP(rec, req)

	// headers as they were sent, not the recorder's live map
	res := rec.Result()
	if res.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip encoding, got %q", res.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(zr)
	if string(body) != "hello hello hello" {
		t.Errorf("unexpected body %q", body)
	}

	// empty responses stay unencoded
	rec = httptest.NewRecorder()
	mw.Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, req)
	if res := rec.Result(); res.Header.Get("Content-Encoding") != "" || rec.Body.Len() != 0 {
		t.Errorf("204 should not be encoded: %q %d", res.Header.Get("Content-Encoding"), rec.Body.Len())
	}

	// implicit 200 from the first Write
	rec = httptest.NewRecorder()
	mw.Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit"))
	})).ServeHTTP(rec, req)
	if rec.Result().Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("implicit 200 should be encoded")
	}
}

func TestCompressionOverTheWire(t *testing.T) {
	json := `{"name":"Stephen King","genre":"Horror"}`
	h := mw.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(json))
	}), mw.Compression, mw.CacheHeaders(10*time.Minute))
	srv := httptest.NewServer(h)
	defer srv.Close()

	get := func(etag string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/authors", nil)
		// set explicitly so the transport does not decode for us
		req.Header.Set("Accept-Encoding", "gzip")
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	res := get("")
	defer res.Body.Close()
	if res.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding not sent: %q", res.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(zr)
	if string(body) != json {
		t.Errorf("unexpected body %q", body)
	}

	res304 := get(res.Header.Get("ETag"))
	defer res304.Body.Close()
	if res304.StatusCode != http.StatusNotModified || res304.Header.Get("Content-Encoding") != "" {
		t.Errorf("304 should go out unencoded: %d %q", res304.StatusCode, res304.Header.Get("Content-Encoding"))
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) mw.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := mw.Chain(okHandler(""), tag("outer"), nil, tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	h := mw.RequestID(mw.AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/authors?pageSize=5", nil))

	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"status":500`, `"path":"/api/authors"`, `"query":"pageSize=5"`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	mw "github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHPP_CanonicalizesAndKeepsFirstValue(t *testing.T) {
	var got url.Values
	h := mw.HPP(mw.DefaultHPPOptions(zerolog.Nop()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))

	req := httptest.NewRequest(http.MethodGet,
		"/api/authors?PAGESIZE=5&pageNumber=2&pageNumber=9&orderby=name%20desc&evil=1&Fields=id,name", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, url.Values{
		"pageSize":   {"5"},
		"pageNumber": {"2"},
		"orderBy":    {"name desc"},
		"fields":     {"id,name"},
	}, got)
}

func TestHPP_ExactSpellingWins(t *testing.T) {
	var got url.Values
	h := mw.HPP(mw.DefaultHPPOptions(zerolog.Nop()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/authors?GENRE=horror&genre=fantasy", nil))
	assert.Equal(t, "fantasy", got.Get("genre"))
	assert.Len(t, got, 1)
}

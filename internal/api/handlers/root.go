package handlers

import (
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/resource/links"
)

var rootActions = []links.Action{
	links.Self("/api"),
	{Rel: "authors", Method: http.MethodGet, Path: "/api/authors"},
	{Rel: "create_author", Method: http.MethodPost, Path: "/api/authors"},
}

// Root serves GET /api: the entry links in hypermedia mode, 204 otherwise.
func (d Deps) Root(w http.ResponseWriter, r *http.Request) {
	if !httpx.WantsHypermedia(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	out, err := d.Links(r).ForItem(nil, nil, rootActions...)
	if err != nil {
		d.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.MediaHypermedia, out)
}

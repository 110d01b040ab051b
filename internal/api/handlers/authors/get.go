package authors

import (
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/shape"
)

// GET /api/authors/{id}?fields=
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rawFields := resource.QueryValue(r.URL.Query(), "fields")
	if err := h.Catalog.Shapes.Validate(catalog.Author, rawFields); err != nil {
		h.Fail(w, r, err)
		return
	}
	fields, err := shape.ParseFields(rawFields)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	id, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}

	author, err := h.Store.GetAuthor(r.Context(), id)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	rec, err := h.linked(h.Links(r), h.Catalog.AuthorDTO(author), fields)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, responseType(r), rec)
}

// POST /api/authors/{id}: authors are never created at a client-chosen id. 409
// when the id is taken, 404 otherwise.
func (h *Handler) BlockCreation(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	exists, err := h.Store.AuthorExists(r.Context(), id)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if exists {
		apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "author "+id.String()+" already exists")
		return
	}
	apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "")
}

// DELETE /api/authors/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteAuthor(r.Context(), id); err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Log.Info().Stringer("author_id", id).Msg("author deleted")
	w.WriteHeader(http.StatusNoContent)
}

// OPTIONS /api/authors
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET,OPTIONS,POST")
	w.WriteHeader(http.StatusOK)
}

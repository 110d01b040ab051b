package books

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/validate"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
)

// POST /api/authors/{authorId}/books
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BookForCreation
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.Fail(w, r, err)
		return
	}
	if verrs := validate.Struct(in); verrs != nil {
		h.Fail(w, r, verrs)
		return
	}
	authorID, ok := h.author(w, r)
	if !ok {
		return
	}
	h.create(w, r, in.Entity(authorID))
}

// PUT /api/authors/{authorId}/books/{id}: replaces the book, or creates it at that
// id when it does not exist yet.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var in models.BookForUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.Fail(w, r, err)
		return
	}
	if verrs := validate.Struct(in); verrs != nil {
		h.Fail(w, r, verrs)
		return
	}
	authorID, ok := h.author(w, r)
	if !ok {
		return
	}
	bookID, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	h.upsert(w, r, in.Entity(authorID), bookID)
}

// PATCH /api/authors/{authorId}/books/{id} with an RFC 6902 document. A missing
// book is created from the patch applied to an empty book.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(r)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	patch, err := jsonpatch.DecodePatch(body)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON patch: "+err.Error())
		return
	}
	authorID, ok := h.author(w, r)
	if !ok {
		return
	}
	bookID, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var current models.BookForUpdate
	existing, err := h.Store.GetBook(r.Context(), authorID, bookID)
	switch {
	case err == nil:
		current = existing.ForUpdate()
	case errors.Is(err, library.ErrNotFound):
	default:
		h.Fail(w, r, err)
		return
	}

	patched, err := applyPatch(patch, current)
	if err != nil {
		apperr.Write(w, r, apperr.Unprocessable(map[string]string{"patch": err.Error()}))
		return
	}
	if verrs := validate.Struct(patched); verrs != nil {
		h.Fail(w, r, verrs)
		return
	}
	h.upsert(w, r, patched.Entity(authorID), bookID)
}

func applyPatch(patch jsonpatch.Patch, doc models.BookForUpdate) (models.BookForUpdate, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, err
	}
	raw, err = patch.Apply(raw)
	if err != nil {
		return doc, err
	}
	var out models.BookForUpdate
	if err := json.Unmarshal(raw, &out); err != nil {
		return doc, err
	}
	return out, nil
}

// upsert updates the book at bookID, creating it there if missing.
func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, b models.Book, bookID uuid.UUID) {
	b.ID = bookID
	err := h.Store.UpdateBook(r.Context(), b)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, library.ErrNotFound):
		h.create(w, r, b)
	default:
		h.Fail(w, r, err)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, b models.Book) {
	created, err := h.Store.CreateBook(r.Context(), b)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Log.Info().Stringer("author_id", created.AuthorID).Stringer("book_id", created.ID).Msg("book created")

	lb := h.Links(r)
	rec, err := h.linked(lb, created, nil)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	loc, err := links.Expand(itemPath, identity(created))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	w.Header().Set("Location", lb.Href(loc))
	httpx.WriteJSON(w, http.StatusCreated, responseType(r), rec)
}

// DELETE /api/authors/{authorId}/books/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.author(w, r)
	if !ok {
		return
	}
	bookID, ok := handlers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteBook(r.Context(), authorID, bookID); err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Log.Info().Stringer("author_id", authorID).Stringer("book_id", bookID).Msg("book deleted")
	w.WriteHeader(http.StatusNoContent)
}

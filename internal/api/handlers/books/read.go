package books

import (
	"net/http"
	"strings"

	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/resource/shape"
)

type listBody struct {
	Value []shape.Record `json:"value"`
	Links []links.Link   `json:"links"`
}

func (h *Handler) fields(r *http.Request) (shape.FieldSet, error) {
	raw := resource.QueryValue(r.URL.Query(), "fields")
	if err := h.Catalog.Shapes.Validate(catalog.Book, raw); err != nil {
		return nil, err
	}
	return shape.ParseFields(raw)
}

// GET /api/authors/{authorId}/books?fields=&orderBy=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orderBy := resource.QueryValue(r.URL.Query(), "orderBy")
	if strings.TrimSpace(orderBy) == "" {
		orderBy = catalog.DefaultBookOrder
	}
	terms, err := h.Catalog.Sorts.Translate(catalog.Book, orderBy)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	fields, err := h.fields(r)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	authorID, ok := h.author(w, r)
	if !ok {
		return
	}

	books, err := h.Store.ListBooks(r.Context(), authorID, terms)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	lb := h.Links(r)
	body := listBody{Value: make([]shape.Record, 0, len(books))}
	for _, b := range books {
		rec, err := h.linked(lb, b, fields)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		body.Value = append(body.Value, rec)
	}
	body.Links, err = lb.ForItem(links.Identity{"authorId": authorID}, fields, links.Self(listPath))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, responseType(r), body)
}

// GET /api/authors/{authorId}/books/{id}?fields=
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	fields, err := h.fields(r)
	if err != nil {
		h.Fail(w, r, err)
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

	book, err := h.Store.GetBook(r.Context(), authorID, bookID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	rec, err := h.linked(h.Links(r), book, fields)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, responseType(r), rec)
}

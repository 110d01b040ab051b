// Package books serves the books of one author.
package books

import (
	"context"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/resource/shape"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/google/uuid"
)

const (
	listPath = "/api/authors/{authorId}/books"
	itemPath = listPath + "/{id}"
)

type Store interface {
	AuthorExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListBooks(ctx context.Context, authorID uuid.UUID, order []sortkeys.Term) ([]models.Book, error)
	GetBook(ctx context.Context, authorID, bookID uuid.UUID) (models.Book, error)
	CreateBook(ctx context.Context, b models.Book) (models.Book, error)
	UpdateBook(ctx context.Context, b models.Book) error
	DeleteBook(ctx context.Context, authorID, bookID uuid.UUID) error
}

type Handler struct {
	handlers.Deps
	Store Store
}

func NewHandler(deps handlers.Deps, store Store) *Handler {
	return &Handler{Deps: deps, Store: store}
}

var bookActions = []links.Action{
	links.Self(itemPath),
	{Rel: "delete_book", Method: http.MethodDelete, Path: itemPath},
	{Rel: "update_book", Method: http.MethodPut, Path: itemPath},
	{Rel: "partially_update_book", Method: http.MethodPatch, Path: itemPath},
}

func identity(b models.Book) links.Identity {
	return links.Identity{"authorId": b.AuthorID, "id": b.ID}
}

func (h *Handler) linked(lb *links.Builder, b models.Book, fields shape.FieldSet) (shape.Record, error) {
	rec, err := h.Catalog.Books.ProjectOne(b.ToDTO(), fields)
	if err != nil {
		return shape.Record{}, err
	}
	ls, err := lb.ForItem(identity(b), fields, bookActions...)
	if err != nil {
		return shape.Record{}, err
	}
	rec.Append("links", ls)
	return rec, nil
}

// author resolves {authorId} and checks it exists. It writes the response and
// returns false when the request cannot continue.
func (h *Handler) author(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	authorID, ok := handlers.PathUUID(w, r, "authorId")
	if !ok {
		return uuid.Nil, false
	}
	exists, err := h.Store.AuthorExists(r.Context(), authorID)
	if err != nil {
		h.Fail(w, r, err)
		return uuid.Nil, false
	}
	if !exists {
		h.Fail(w, r, library.ErrNotFound)
		return uuid.Nil, false
	}
	return authorID, true
}

func responseType(r *http.Request) string {
	if httpx.WantsHypermedia(r) {
		return httpx.MediaHypermedia
	}
	return httpx.MediaJSON
}

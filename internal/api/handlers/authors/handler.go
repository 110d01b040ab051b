// Package authors serves the author resource and the authors collection.
package authors

import (
	"context"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/resource/shape"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/google/uuid"
)

const (
	basePath       = "/api/authors"
	collectionPath = "/api/authorscollection"
)

// Store is the part of the query executor the author handlers use.
type Store interface {
	ListAuthors(ctx context.Context, q library.AuthorQuery) (paging.Page[models.Author], error)
	GetAuthor(ctx context.Context, id uuid.UUID) (models.Author, error)
	AuthorExists(ctx context.Context, id uuid.UUID) (bool, error)
	AuthorsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Author, error)
	CreateAuthors(ctx context.Context, in []library.NewAuthor) ([]models.Author, error)
	CreateAuthor(ctx context.Context, na library.NewAuthor) (models.Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	handlers.Deps
	Store Store
}

func NewHandler(deps handlers.Deps, store Store) *Handler {
	return &Handler{Deps: deps, Store: store}
}

var authorActions = []links.Action{
	links.Self(basePath + "/{id}"),
	{Rel: "delete_author", Method: http.MethodDelete, Path: basePath + "/{id}"},
	{Rel: "create_book_for_author", Method: http.MethodPost, Path: basePath + "/{id}/books"},
	{Rel: "books", Method: http.MethodGet, Path: basePath + "/{id}/books"},
}

var collectionActions = []links.Action{
	{Rel: "create_author", Method: http.MethodPost, Path: basePath},
}

// linked shapes one author and attaches its links.
func (h *Handler) linked(lb *links.Builder, dto models.AuthorDTO, fields shape.FieldSet) (shape.Record, error) {
	rec, err := h.Catalog.Authors.ProjectOne(dto, fields)
	if err != nil {
		return shape.Record{}, err
	}
	ls, err := lb.ForItem(links.Identity{"id": dto.ID}, fields, authorActions...)
	if err != nil {
		return shape.Record{}, err
	}
	rec.Append("links", ls)
	return rec, nil
}

func responseType(r *http.Request) string {
	if httpx.WantsHypermedia(r) {
		return httpx.MediaHypermedia
	}
	return httpx.MediaJSON
}

package authors

import (
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/validate"
	"github.com/google/uuid"
)

// POST /api/authors
//
// The Content-Type picks the payload: the plain or full author media type, or the
// variant that also carries a date of death.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		na  library.NewAuthor
		err error
	)
	switch httpx.ContentType(r) {
	case httpx.MediaJSON, httpx.MediaAuthorFull:
		var in models.AuthorForCreation
		na, err = decodeAuthor(r, &in, func() library.NewAuthor { return newAuthor(in.Entity(), in.Books) })
	case httpx.MediaAuthorWithDeathFull:
		var in models.AuthorForCreationWithDateOfDeath
		na, err = decodeAuthor(r, &in, func() library.NewAuthor { return newAuthor(in.Entity(), in.Books) })
	default:
		apperr.WriteStatus(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type",
			"use "+httpx.MediaAuthorFull+" or "+httpx.MediaAuthorWithDeathFull)
		return
	}
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	author, err := h.Store.CreateAuthor(r.Context(), na)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Log.Info().Stringer("author_id", author.ID).Int("books", len(na.Books)).Msg("author created")

	lb := h.Links(r)
	rec, err := h.linked(lb, h.Catalog.AuthorDTO(author), nil)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	w.Header().Set("Location", lb.Href(basePath+"/"+author.ID.String()))
	httpx.WriteJSON(w, http.StatusCreated, responseType(r), rec)
}

// decodeAuthor reads and validates one creation payload into dst, then converts it.
func decodeAuthor(r *http.Request, dst any, convert func() library.NewAuthor) (library.NewAuthor, error) {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return library.NewAuthor{}, err
	}
	if verrs := validate.Struct(dst); verrs != nil {
		return library.NewAuthor{}, verrs
	}
	return convert(), nil
}

func newAuthor(a models.Author, books []models.BookForCreation) library.NewAuthor {
	na := library.NewAuthor{Author: a, Books: make([]models.Book, 0, len(books))}
	for _, b := range books {
		// the store fills in the author id
		na.Books = append(na.Books, b.Entity(uuid.Nil))
	}
	return na
}

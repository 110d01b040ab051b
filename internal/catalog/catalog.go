// Package catalog is the start-up wiring of representations, sort keys and
// entity-to-DTO mapping. One Catalog is built in main and handed to the handlers.
package catalog

import (
	"time"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/shape"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
)

// Representation type names.
const (
	Author = "author"
	Book   = "book"
)

// Backing fields the sort keys resolve to. The store owns their column mapping.
const (
	FieldID          = "Id"
	FieldFirstName   = "FirstName"
	FieldLastName    = "LastName"
	FieldDateOfBirth = "DateOfBirth"
	FieldGenre       = "Genre"
	FieldTitle       = "Title"
	FieldDescription = "Description"
)

// Default orderBy per representation, applied when the client sends none.
const (
	DefaultAuthorOrder = "name"
	DefaultBookOrder   = "title"
)

type Catalog struct {
	Shapes  *shape.Registry
	Sorts   *sortkeys.Registry
	Authors *shape.Representation[models.AuthorDTO]
	Books   *shape.Representation[models.BookDTO]

	now func() time.Time
}

// New builds the catalog. now is the clock used for derived values such as age;
// nil means time.Now.
func New(now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}

	authors := shape.NewRepresentation(Author, "id",
		shape.Attr[models.AuthorDTO]{Name: "id", Get: func(a models.AuthorDTO) any { return a.ID }},
		shape.Attr[models.AuthorDTO]{Name: "name", Get: func(a models.AuthorDTO) any { return a.Name }},
		shape.Attr[models.AuthorDTO]{Name: "age", Get: func(a models.AuthorDTO) any { return a.Age }},
		shape.Attr[models.AuthorDTO]{Name: "genre", Get: func(a models.AuthorDTO) any { return a.Genre }},
	)
	books := shape.NewRepresentation(Book, "id",
		shape.Attr[models.BookDTO]{Name: "id", Get: func(b models.BookDTO) any { return b.ID }},
		shape.Attr[models.BookDTO]{Name: "title", Get: func(b models.BookDTO) any { return b.Title }},
		shape.Attr[models.BookDTO]{Name: "description", Get: func(b models.BookDTO) any { return b.Description }},
		shape.Attr[models.BookDTO]{Name: "authorId", Get: func(b models.BookDTO) any { return b.AuthorID }},
	)

	sorts := sortkeys.NewBuilder().
		Register(Author, "id", FieldID, false).
		Register(Author, "genre", FieldGenre, false).
		Register(Author, "age", FieldDateOfBirth, true).
		Register(Author, "name", FieldFirstName, false).
		Register(Author, "name", FieldLastName, false).
		Register(Book, "id", FieldID, false).
		Register(Book, "title", FieldTitle, false).
		Register(Book, "description", FieldDescription, false).
		Build()

	return &Catalog{
		Shapes:  shape.NewRegistry(authors, books),
		Sorts:   sorts,
		Authors: authors,
		Books:   books,
		now:     now,
	}
}

func (c *Catalog) Now() time.Time { return c.now() }

// AuthorDTO maps one entity at the catalog's clock.
func (c *Catalog) AuthorDTO(a models.Author) models.AuthorDTO {
	return a.ToDTO(c.now())
}

// AuthorDTOs maps entities with a single clock reading so every age in a response
// is computed against the same instant.
func (c *Catalog) AuthorDTOs(in []models.Author) []models.AuthorDTO {
	now := c.now()
	out := make([]models.AuthorDTO, len(in))
	for i, a := range in {
		out[i] = a.ToDTO(now)
	}
	return out
}

func (c *Catalog) BookDTOs(in []models.Book) []models.BookDTO {
	out := make([]models.BookDTO, len(in))
	for i, b := range in {
		out[i] = b.ToDTO()
	}
	return out
}

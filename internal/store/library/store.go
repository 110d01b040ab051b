// Package library is the Postgres query executor for authors and books.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

func New(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Backing field -> column. A sort term naming anything else is a wiring error.
var (
	authorColumns = map[string]string{
		catalog.FieldID:          "id",
		catalog.FieldFirstName:   "first_name",
		catalog.FieldLastName:    "last_name",
		catalog.FieldDateOfBirth: "date_of_birth",
		catalog.FieldGenre:       "genre",
	}
	bookColumns = map[string]string{
		catalog.FieldID:          "id",
		catalog.FieldTitle:       "title",
		catalog.FieldDescription: "description",
	}
)

// orderBy renders terms as an ORDER BY list. id is appended as the final
// tie-breaker unless already present so that pages never overlap.
func orderBy(terms []sortkeys.Term, columns map[string]string) (string, error) {
	parts := make([]string, 0, len(terms)+1)
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		col, ok := columns[t.Field]
		if !ok {
			return "", fmt.Errorf("%w: no column for sort field %q", resource.ErrUnknownRepresentation, t.Field)
		}
		if seen[col] {
			continue
		}
		seen[col] = true
		dir := "ASC"
		if t.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if !seen["id"] {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", "), nil
}

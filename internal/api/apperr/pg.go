package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the schema migrations, mapped to client field names.
var constraintField = map[string]string{
	"authors_pkey":              "id",
	"authors_death_after_birth": "dateOfDeath",
	"books_pkey":                "id",
	"books_author_id_fkey":      "authorId",
	"books_description_differs": "description",
}

// Column names in the order they are probed in error details.
var columnOrder = []string{"first_name", "last_name", "genre", "date_of_birth", "title", "description", "author_id", "id"}

var columnField = map[string]string{
	"first_name":    "firstName",
	"last_name":     "lastName",
	"genre":         "genre",
	"date_of_birth": "dateOfBirth",
	"title":         "title",
	"description":   "description",
	"author_id":     "authorId",
	"id":            "id",
}

func fieldOf(pg *pgconn.PgError) string {
	if f, ok := constraintField[pg.ConstraintName]; ok {
		return f
	}
	if f, ok := columnField[pg.ColumnName]; ok {
		return f
	}
	for _, col := range columnOrder {
		if strings.Contains(pg.Detail, col) {
			return columnField[col]
		}
	}
	return ""
}

type pgRule struct {
	status    int
	code      string // FieldError code; "" means no field error
	message   string
	fallback  string // field used when none can be derived
	detail    string
	retryable bool
}

var pgRules = map[string]pgRule{
	"23505": {status: http.StatusConflict, code: "unique", message: "value already exists", fallback: "resource"},
	"23503": {status: http.StatusConflict, code: "fk", message: "resource is referenced by other records", fallback: "resource"},
	"23502": {status: http.StatusBadRequest, code: "not_null", message: "required field is missing", fallback: "field"},
	"23514": {status: http.StatusUnprocessableEntity, code: "check", message: "constraint failed", fallback: "field"},
	"22P02": {status: http.StatusBadRequest, code: "invalid", message: "invalid format", fallback: "id"},
	"22001": {status: http.StatusBadRequest, code: "too_long", message: "value is too long", fallback: "field"},
	"22007": {status: http.StatusBadRequest, code: "invalid", message: "invalid date", fallback: "field"},
	"40001": {status: http.StatusConflict, detail: "transaction conflict, please retry", retryable: true},
	"40P01": {status: http.StatusConflict, detail: "deadlock detected, please retry", retryable: true},
}

// FromPG maps a pgconn.PgError to a Problem. Returns (Problem, true) if mapped.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	rule, ok := pgRules[pg.Code]
	if !ok {
		// keep server-side detail out of the response
		return Problem{Title: "Database error", Status: http.StatusInternalServerError}, true
	}

	p := Problem{
		Title:     http.StatusText(rule.status),
		Status:    rule.status,
		Detail:    rule.detail,
		Retryable: rule.retryable,
	}
	if rule.code != "" {
		field := fieldOf(pg)
		if field == "" {
			field = rule.fallback
		}
		p.FieldErrors = []FieldError{{Field: field, Code: rule.code, Message: rule.message}}
	}
	return p, true
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, r, p)
		return true
	}
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}

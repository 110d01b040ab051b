package dbx

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer/Execer/Getter let these helpers work with *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
type Getter interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is satisfied by both *sql.DB and *sql.Tx.
type DB interface {
	Queryer
	Execer
	Getter
}

// WithinTx runs fn in a transaction (commit on nil, rollback on error).
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Args accumulates positional arguments and hands out their $N placeholders.
type Args struct {
	vals []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.vals = append(a.vals, v)
	return "$" + strconv.Itoa(len(a.vals))
}

// List appends each value and returns "$i, $j, ...".
func (a *Args) List(vs ...any) string {
	ph := make([]string, len(vs))
	for i, v := range vs {
		ph[i] = a.Add(v)
	}
	return strings.Join(ph, ", ")
}

func (a *Args) Values() []any { return a.vals }

// PGCode returns the SQLSTATE of err, or "" when err is not a Postgres error.
func PGCode(err error) string {
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool     { return PGCode(err) == "23505" }
func IsForeignKeyViolation(err error) bool { return PGCode(err) == "23503" }

// EscapeLike escapes the LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

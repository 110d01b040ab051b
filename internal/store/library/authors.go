package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/5w1tchy/library-api/internal/store/dbx"
	"github.com/google/uuid"
)

const authorCols = "id, first_name, last_name, date_of_birth, date_of_death, genre"

// AuthorQuery is a page request over authors.
type AuthorQuery struct {
	Genre       string
	SearchQuery string
	Order       []sortkeys.Term
	Page        paging.Params
}

func (q AuthorQuery) where(args *dbx.Args) string {
	var where []string
	if g := strings.TrimSpace(q.Genre); g != "" {
		where = append(where, "lower(genre) = lower("+args.Add(g)+")")
	}
	if s := strings.TrimSpace(q.SearchQuery); s != "" {
		p := args.Add("%" + dbx.EscapeLike(strings.ToLower(s)) + "%")
		where = append(where, "(lower(genre) LIKE "+p+` ESCAPE '\'`+
			" OR lower(first_name) LIKE "+p+` ESCAPE '\'`+
			" OR lower(last_name) LIKE "+p+` ESCAPE '\')`)
	}
	if len(where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(where, " AND ") + "\n"
}

// ListAuthors returns one page of authors and the total count of the filtered set.
func (s *Store) ListAuthors(ctx context.Context, q AuthorQuery) (paging.Page[models.Author], error) {
	order, err := orderBy(q.Order, authorColumns)
	if err != nil {
		return paging.Page[models.Author]{}, err
	}

	var args dbx.Args
	where := q.where(&args)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM authors\n"+where, args.Values()...).Scan(&total); err != nil {
		return paging.Page[models.Author]{}, fmt.Errorf("count authors: %w", err)
	}

	query := "SELECT " + authorCols + " FROM authors\n" + where +
		"ORDER BY " + order + "\n" +
		"LIMIT " + args.Add(q.Page.PageSize) + " OFFSET " + args.Add(q.Page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args.Values()...)
	if err != nil {
		return paging.Page[models.Author]{}, fmt.Errorf("list authors: %w", err)
	}
	items, err := scanAuthors(rows)
	if err != nil {
		return paging.Page[models.Author]{}, err
	}
	return paging.Of(items, total, q.Page.PageNumber, q.Page.PageSize), nil
}

// AuthorsByIDs returns the authors among ids, ordered by name.
func (s *Store) AuthorsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Author, error) {
	if len(ids) == 0 {
		return []models.Author{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+authorCols+" FROM authors WHERE id = ANY($1::uuid[]) ORDER BY first_name, last_name, id",
		uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("authors by ids: %w", err)
	}
	return scanAuthors(rows)
}

func (s *Store) GetAuthor(ctx context.Context, id uuid.UUID) (models.Author, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+authorCols+" FROM authors WHERE id = $1", id)
	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Author{}, ErrNotFound
	}
	return a, err
}

func (s *Store) AuthorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)", id)
}

// NewAuthor is an author to insert together with its initial books.
type NewAuthor struct {
	Author models.Author
	Books  []models.Book
}

// CreateAuthors inserts every author and their books in one transaction and
// returns the authors with their assigned ids, in input order.
func (s *Store) CreateAuthors(ctx context.Context, in []NewAuthor) ([]models.Author, error) {
	out := make([]models.Author, 0, len(in))
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, na := range in {
			a, err := insertAuthor(ctx, tx, na)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create authors: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create authors: %w", err)
	}
	s.log.Debug().Int("count", len(out)).Msg("authors created")
	return out, nil
}

func (s *Store) CreateAuthor(ctx context.Context, na NewAuthor) (models.Author, error) {
	out, err := s.CreateAuthors(ctx, []NewAuthor{na})
	if err != nil {
		return models.Author{}, err
	}
	return out[0], nil
}

func insertAuthor(ctx context.Context, tx dbx.DB, na NewAuthor) (models.Author, error) {
	a := na.Author
	a.ID = uuid.New()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO authors ("+authorCols+") VALUES ($1, $2, $3, $4, $5, $6)",
		a.ID, a.FirstName, a.LastName, a.DateOfBirth, a.DateOfDeath, a.Genre,
	); err != nil {
		return models.Author{}, err
	}
	for _, b := range na.Books {
		b.AuthorID = a.ID
		if _, err := insertBook(ctx, tx, b); err != nil {
			return models.Author{}, err
		}
	}
	return a, nil
}

// DeleteAuthor removes the author; books go with it through the foreign key.
func (s *Store) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM authors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	return affected(res)
}

func scanAuthor(row interface{ Scan(...any) error }) (models.Author, error) {
	var a models.Author
	var dod sql.NullTime
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.DateOfBirth, &dod, &a.Genre); err != nil {
		return models.Author{}, err
	}
	if dod.Valid {
		t := dod.Time
		a.DateOfDeath = &t
	}
	return a, nil
}

func scanAuthors(rows *sql.Rows) ([]models.Author, error) {
	defer rows.Close()
	out := []models.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// uuidArray renders ids as a Postgres array literal.
func uuidArray(ids []uuid.UUID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return "{" + strings.Join(out, ",") + "}"
}

func exists(ctx context.Context, db dbx.Getter, query string, args ...any) (bool, error) {
	var ok bool
	if err := db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

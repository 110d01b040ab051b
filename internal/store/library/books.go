package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/5w1tchy/library-api/internal/store/dbx"
	"github.com/google/uuid"
)

const bookCols = "id, title, description, author_id"

// ListBooks returns every book of the author in the requested order.
func (s *Store) ListBooks(ctx context.Context, authorID uuid.UUID, order []sortkeys.Term) ([]models.Book, error) {
	ob, err := orderBy(order, bookColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bookCols+" FROM books WHERE author_id = $1 ORDER BY "+ob, authorID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.AuthorID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBook(ctx context.Context, authorID, bookID uuid.UUID) (models.Book, error) {
	var b models.Book
	err := s.db.QueryRowContext(ctx,
		"SELECT "+bookCols+" FROM books WHERE author_id = $1 AND id = $2", authorID, bookID,
	).Scan(&b.ID, &b.Title, &b.Description, &b.AuthorID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, ErrNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// CreateBook inserts b, generating an id unless the caller supplied one (upsert).
func (s *Store) CreateBook(ctx context.Context, b models.Book) (models.Book, error) {
	out, err := insertBook(ctx, s.db, b)
	switch {
	case dbx.IsForeignKeyViolation(err):
		return models.Book{}, fmt.Errorf("create book: author %s: %w", b.AuthorID, ErrNotFound)
	case dbx.IsUniqueViolation(err):
		return models.Book{}, fmt.Errorf("create book %s: %w", b.ID, ErrConflict)
	case err != nil:
		return models.Book{}, fmt.Errorf("create book: %w", err)
	}
	return out, nil
}

func insertBook(ctx context.Context, db dbx.Execer, b models.Book) (models.Book, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO books ("+bookCols+") VALUES ($1, $2, $3, $4)",
		b.ID, b.Title, b.Description, b.AuthorID)
	if err != nil {
		return models.Book{}, err
	}
	return b, nil
}

// UpdateBook overwrites title and description of an existing book.
func (s *Store) UpdateBook(ctx context.Context, b models.Book) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE books SET title = $1, description = $2 WHERE author_id = $3 AND id = $4",
		b.Title, b.Description, b.AuthorID, b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return affected(res)
}

func (s *Store) DeleteBook(ctx context.Context, authorID, bookID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE author_id = $1 AND id = $2", authorID, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return affected(res)
}

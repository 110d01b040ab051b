package router_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/google/uuid"
)

// memStore is an in-memory query executor. It filters and pages but keeps
// insertion order; the requested order is recorded for assertions.
type memStore struct {
	mu        sync.Mutex
	authors   []models.Author
	books     []models.Book
	listCalls int
	lastQuery library.AuthorQuery
	bookOrder []sortkeys.Term
}

var (
	kingID    = uuid.MustParse("25320c5e-f58a-4b1f-b63a-8ee07a840bdf")
	rowlingID = uuid.MustParse("76053df4-6687-4353-8937-b45556748abe")
	martinID  = uuid.MustParse("412c3012-d891-4f5e-9613-ff7aa63e6bb3")
	itID      = uuid.MustParse("447eb762-95e9-4c31-95e1-b20053fbe215")
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func seededStore() *memStore {
	return &memStore{
		authors: []models.Author{
			{ID: kingID, FirstName: "Stephen", LastName: "King", DateOfBirth: date(1947, 9, 21), Genre: "Horror"},
			{ID: rowlingID, FirstName: "Joanne", LastName: "Rowling", DateOfBirth: date(1965, 7, 31), Genre: "Fantasy"},
			{ID: martinID, FirstName: "George", LastName: "RR Martin", DateOfBirth: date(1948, 9, 20), Genre: "Fantasy"},
		},
		books: []models.Book{
			{ID: itID, Title: "It", Description: "A clown.", AuthorID: kingID},
		},
	}
}

func (s *memStore) ListAuthors(ctx context.Context, q library.AuthorQuery) (paging.Page[models.Author], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	s.lastQuery = q
	if err := ctx.Err(); err != nil {
		return paging.Page[models.Author]{}, err
	}
	var match []models.Author
	for _, a := range s.authors {
		if q.Genre != "" && !strings.EqualFold(a.Genre, strings.TrimSpace(q.Genre)) {
			continue
		}
		if sq := strings.ToLower(strings.TrimSpace(q.SearchQuery)); sq != "" &&
			!strings.Contains(strings.ToLower(a.Genre+" "+a.FirstName+" "+a.LastName), sq) {
			continue
		}
		match = append(match, a)
	}
	start := min(q.Page.Offset(), len(match))
	end := min(start+q.Page.PageSize, len(match))
	return paging.Of(match[start:end], len(match), q.Page.PageNumber, q.Page.PageSize), nil
}

func (s *memStore) GetAuthor(ctx context.Context, id uuid.UUID) (models.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.authors {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Author{}, library.ErrNotFound
}

func (s *memStore) AuthorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.GetAuthor(ctx, id)
	return err == nil, nil
}

func (s *memStore) AuthorsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Author, error) {
	var out []models.Author
	for _, id := range ids {
		if a, err := s.GetAuthor(ctx, id); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) CreateAuthors(ctx context.Context, in []library.NewAuthor) ([]models.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Author, 0, len(in))
	for _, na := range in {
		a := na.Author
		a.ID = uuid.New()
		s.authors = append(s.authors, a)
		for _, b := range na.Books {
			b.ID = uuid.New()
			b.AuthorID = a.ID
			s.books = append(s.books, b)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) CreateAuthor(ctx context.Context, na library.NewAuthor) (models.Author, error) {
	out, err := s.CreateAuthors(ctx, []library.NewAuthor{na})
	if err != nil {
		return models.Author{}, err
	}
	return out[0], nil
}

func (s *memStore) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.authors {
		if a.ID == id {
			s.authors = append(s.authors[:i], s.authors[i+1:]...)
			return nil
		}
	}
	return library.ErrNotFound
}

func (s *memStore) ListBooks(ctx context.Context, authorID uuid.UUID, order []sortkeys.Term) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookOrder = order
	out := []models.Book{}
	for _, b := range s.books {
		if b.AuthorID == authorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) GetBook(ctx context.Context, authorID, bookID uuid.UUID) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.AuthorID == authorID && b.ID == bookID {
			return b, nil
		}
	}
	return models.Book{}, library.ErrNotFound
}

func (s *memStore) CreateBook(ctx context.Context, b models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	s.books = append(s.books, b)
	return b, nil
}

func (s *memStore) UpdateBook(ctx context.Context, b models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.books {
		if cur.AuthorID == b.AuthorID && cur.ID == b.ID {
			s.books[i] = b
			return nil
		}
	}
	return library.ErrNotFound
}

func (s *memStore) DeleteBook(ctx context.Context, authorID, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.books {
		if b.AuthorID == authorID && b.ID == bookID {
			s.books = append(s.books[:i], s.books[i+1:]...)
			return nil
		}
	}
	return library.ErrNotFound
}

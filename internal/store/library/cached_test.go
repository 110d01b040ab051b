package library_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/store/pagecache"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestCached_ServesRepeatAndInvalidatesOnWrite(t *testing.T) {
	store, mock := newStore(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cached := library.NewCached(store, pagecache.New(rdb, time.Minute, zerolog.Nop()))

	q := library.AuthorQuery{Page: paging.Params{PageNumber: 1, PageSize: 10}}
	id := uuid.New()
	expectPage := func() {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM authors`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC LIMIT $1 OFFSET $2`)).
			WillReturnRows(sqlmock.NewRows(authorRowCols).AddRow(id.String(), "Tom", "Lanoye", time.Date(1958, 8, 27, 0, 0, 0, 0, time.UTC), nil, "Various"))
	}

	expectPage()
	for i := 0; i < 2; i++ {
		page, err := cached.ListAuthors(t.Context(), q)
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if page.TotalCount() != 1 || page.Items()[0].ID != id {
			t.Fatalf("list %d: bad page %+v", i, page.Items())
		}
	}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM authors WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := cached.DeleteAuthor(t.Context(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	expectPage()
	if _, err := cached.ListAuthors(t.Context(), q); err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCached_WriteDuringFetchDoesNotPinStalePage(t *testing.T) {
	store, mock := newStore(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	pc := pagecache.New(rdb, time.Minute, zerolog.Nop())
	cached := library.NewCached(store, pc)

	q := library.AuthorQuery{Page: paging.Params{PageNumber: 1, PageSize: 10}}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM authors`)).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC LIMIT $1 OFFSET $2`)).
		WillReturnRows(sqlmock.NewRows(authorRowCols).AddRow(uuid.NewString(), "Tom", "Lanoye", time.Date(1958, 8, 27, 0, 0, 0, 0, time.UTC), nil, "Various"))

	bumped := make(chan error, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		bumped <- pc.Bump(context.Background())
	}()
	if _, err := cached.ListAuthors(t.Context(), q); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if err := <-bumped; err != nil {
		t.Fatalf("bump: %v", err)
	}

	// the author was deleted mid-fetch: the next read must reach the database
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM authors`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC LIMIT $1 OFFSET $2`)).
		WillReturnRows(sqlmock.NewRows(authorRowCols))
	page, err := cached.ListAuthors(t.Context(), q)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if page.TotalCount() != 0 || len(page.Items()) != 0 {
		t.Fatalf("stale page served from cache: total=%d items=%d", page.TotalCount(), len(page.Items()))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

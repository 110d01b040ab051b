package router

import (
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/handlers"
	"github.com/5w1tchy/library-api/internal/api/handlers/authors"
	"github.com/5w1tchy/library-api/internal/api/handlers/books"
)

// Store is everything the API routes need from the query executor.
type Store interface {
	authors.Store
	books.Store
}

func Router(deps handlers.Deps, store Store) http.Handler {
	mux := http.NewServeMux()

	// Root
	mux.HandleFunc("GET /api", deps.Root)

	// Authors
	ah := authors.NewHandler(deps, store)
	mux.HandleFunc("GET /api/authors", ah.List)
	mux.HandleFunc("POST /api/authors", ah.Create)
	mux.HandleFunc("OPTIONS /api/authors", ah.Options)
	mux.HandleFunc("GET /api/authors/{id}", ah.Get)
	mux.HandleFunc("POST /api/authors/{id}", ah.BlockCreation)
	mux.HandleFunc("DELETE /api/authors/{id}", ah.Delete)

	// Authors collection
	mux.HandleFunc("POST /api/authorscollection", ah.CreateCollection)
	mux.HandleFunc("GET /api/authorscollection/{ids}", ah.GetCollection)

	// Books of an author
	bh := books.NewHandler(deps, store)
	mux.HandleFunc("GET /api/authors/{authorId}/books", bh.List)
	mux.HandleFunc("POST /api/authors/{authorId}/books", bh.Create)
	mux.HandleFunc("GET /api/authors/{authorId}/books/{id}", bh.Get)
	mux.HandleFunc("PUT /api/authors/{authorId}/books/{id}", bh.Put)
	mux.HandleFunc("PATCH /api/authors/{authorId}/books/{id}", bh.Patch)
	mux.HandleFunc("DELETE /api/authors/{authorId}/books/{id}", bh.Delete)

	return mux
}

package authors

import (
	"net/http"
	"strings"

	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/resource/shape"
	"github.com/5w1tchy/library-api/internal/store/library"
)

// GET /api/authors
//
// Query: fields, orderBy, pageNumber, pageSize, genre, searchQuery. Both fields and
// orderBy are checked before the store is touched.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	orderBy := resource.QueryValue(query, "orderBy")
	if strings.TrimSpace(orderBy) == "" {
		orderBy = catalog.DefaultAuthorOrder
	}
	terms, err := h.Catalog.Sorts.Translate(catalog.Author, orderBy)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	rawFields := resource.QueryValue(query, "fields")
	if err := h.Catalog.Shapes.Validate(catalog.Author, rawFields); err != nil {
		h.Fail(w, r, err)
		return
	}
	fields, err := shape.ParseFields(rawFields)
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	page, err := h.Store.ListAuthors(r.Context(), library.AuthorQuery{
		Genre:       resource.QueryValue(query, "genre"),
		SearchQuery: resource.QueryValue(query, "searchQuery"),
		Order:       terms,
		Page:        paging.ParamsFromQuery(query, h.Paging),
	})
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if r.Context().Err() != nil {
		h.Fail(w, r, r.Context().Err())
		return
	}

	dtos := paging.Of(h.Catalog.AuthorDTOs(page.Items()), page.TotalCount(), page.CurrentPage(), page.PageSize())
	lb := h.Links(r)
	pc := links.NewPageContext(basePath, query, dtos)
	meta := dtos.Meta()

	if !httpx.WantsHypermedia(r) {
		if dtos.HasPrevious() {
			prev := lb.PageHref(pc, -1)
			meta.PreviousPageLink = &prev
		}
		if dtos.HasNext() {
			next := lb.PageHref(pc, 1)
			meta.NextPageLink = &next
		}
		records, err := h.Catalog.Authors.ProjectAll(dtos.Items(), fields)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		if err := httpx.SetPagination(w, meta); err != nil {
			h.Fail(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, httpx.MediaJSON, records)
		return
	}

	records := make([]shape.Record, 0, len(dtos.Items()))
	for _, dto := range dtos.Items() {
		rec, err := h.linked(lb, dto, fields)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		records = append(records, rec)
	}
	collLinks, err := lb.ForCollection(pc, collectionActions...)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if err := httpx.SetPagination(w, meta); err != nil {
		h.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.MediaHypermedia, collectionBody{Value: records, Links: collLinks})
}

type collectionBody struct {
	Value []shape.Record `json:"value"`
	Links []links.Link   `json:"links"`
}

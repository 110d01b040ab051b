package paging

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/5w1tchy/library-api/internal/resource"
)

// Query parameter names. Lookups are case-insensitive.
const (
	ParamPageNumber = "pageNumber"
	ParamPageSize   = "pageSize"
)

// MaxOffset is the largest row offset a page request may reach. Page numbers past
// it are pulled back so the offset stays a valid SQL OFFSET and page arithmetic
// cannot overflow.
const MaxOffset = math.MaxInt32

// Params is a clamped page request.
type Params struct {
	PageNumber int
	PageSize   int
}

// Offset is the number of rows to skip, never more than MaxOffset.
func (p Params) Offset() int {
	if p.PageNumber < 1 || p.PageSize < 1 {
		return 0
	}
	if p.PageNumber-1 > MaxOffset/p.PageSize {
		return MaxOffset
	}
	return (p.PageNumber - 1) * p.PageSize
}

// Normalize clamps the page size to [1, cfg.MaxPageSize], substituting the default
// size when none was given, and the page number to [1, last page within MaxOffset].
func (p *Params) Normalize(cfg Config) {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = cfg.DefaultPageSize
	}
	if p.PageSize > cfg.MaxPageSize {
		p.PageSize = cfg.MaxPageSize
	}
	if last := MaxOffset/p.PageSize + 1; p.PageNumber > last {
		p.PageNumber = last
	}
}

// ParamsFromQuery reads pageNumber and pageSize from values. Missing or unparsable
// values fall back to the defaults.
func ParamsFromQuery(values url.Values, cfg Config) Params {
	n, _ := strconv.Atoi(strings.TrimSpace(resource.QueryValue(values, ParamPageNumber)))
	s, _ := strconv.Atoi(strings.TrimSpace(resource.QueryValue(values, ParamPageSize)))
	p := Params{PageNumber: n, PageSize: s}
	p.Normalize(cfg)
	return p
}

// TotalPages is ceil(totalCount/pageSize) in integer arithmetic; 0 when there is
// nothing to page over.
func TotalPages(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Page is one fetched page plus its metadata. Page numbers beyond the end are not
// an error: Items is empty and HasNext is false.
type Page[T any] struct {
	items       []T
	totalCount  int
	currentPage int
	pageSize    int
	totalPages  int
}

// Of wraps an already fetched page. pageNumber and pageSize are trusted to be clamped.
func Of[T any](items []T, totalCount, pageNumber, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		items:       items,
		totalCount:  totalCount,
		currentPage: pageNumber,
		pageSize:    pageSize,
		totalPages:  TotalPages(totalCount, pageSize),
	}
}

func (p Page[T]) Items() []T        { return p.items }
func (p Page[T]) TotalCount() int   { return p.totalCount }
func (p Page[T]) CurrentPage() int  { return p.currentPage }
func (p Page[T]) PageSize() int     { return p.pageSize }
func (p Page[T]) TotalPages() int   { return p.totalPages }
func (p Page[T]) HasPrevious() bool { return p.currentPage > 1 }
func (p Page[T]) HasNext() bool     { return p.currentPage < p.totalPages }

// Metadata is the X-Pagination header payload. The link fields are only filled in
// the plain (non-hypermedia) response mode.
type Metadata struct {
	TotalCount       int     `json:"totalCount"`
	PageSize         int     `json:"pageSize"`
	CurrentPage      int     `json:"currentPage"`
	TotalPages       int     `json:"totalPages"`
	PreviousPageLink *string `json:"previousPageLink,omitempty"`
	NextPageLink     *string `json:"nextPageLink,omitempty"`
}

// Meta returns the header metadata for p.
func (p Page[T]) Meta() Metadata {
	return Metadata{
		TotalCount:  p.totalCount,
		PageSize:    p.pageSize,
		CurrentPage: p.currentPage,
		TotalPages:  p.totalPages,
	}
}

// Map converts the items of p, keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.items))
	for i, it := range p.items {
		out[i] = fn(it)
	}
	return Page[U]{
		items:       out,
		totalCount:  p.totalCount,
		currentPage: p.currentPage,
		pageSize:    p.pageSize,
		totalPages:  p.totalPages,
	}
}

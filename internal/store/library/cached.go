package library

import (
	"context"
	"strconv"
	"strings"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/store/pagecache"
	"github.com/google/uuid"
)

const authorPagesScope = "authors"

// Cached serves author pages from the page cache and invalidates it on author
// writes. Book queries pass straight through.
type Cached struct {
	*Store
	cache *pagecache.Cache
}

func NewCached(s *Store, c *pagecache.Cache) *Cached {
	return &Cached{Store: s, cache: c}
}

type cachedPage struct {
	Items []models.Author `json:"items"`
	Total int             `json:"total"`
}

func (q AuthorQuery) cacheKey() string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(q.Genre)),
		strings.ToLower(strings.TrimSpace(q.SearchQuery)),
		strconv.Itoa(q.Page.PageNumber),
		strconv.Itoa(q.Page.PageSize),
	}
	for _, t := range q.Order {
		parts = append(parts, t.String())
	}
	return pagecache.Key(parts...)
}

func (c *Cached) ListAuthors(ctx context.Context, q AuthorQuery) (paging.Page[models.Author], error) {
	key := q.cacheKey()
	var hit cachedPage
	ver, ok := c.cache.Get(ctx, authorPagesScope, key, &hit)
	if ok {
		return paging.Of(hit.Items, hit.Total, q.Page.PageNumber, q.Page.PageSize), nil
	}
	page, err := c.Store.ListAuthors(ctx, q)
	if err != nil {
		return page, err
	}
	c.cache.SetAt(ctx, ver, authorPagesScope, key, cachedPage{Items: page.Items(), Total: page.TotalCount()})
	return page, nil
}

func (c *Cached) CreateAuthors(ctx context.Context, in []NewAuthor) ([]models.Author, error) {
	out, err := c.Store.CreateAuthors(ctx, in)
	if err == nil {
		c.bump(ctx)
	}
	return out, err
}

func (c *Cached) CreateAuthor(ctx context.Context, na NewAuthor) (models.Author, error) {
	out, err := c.CreateAuthors(ctx, []NewAuthor{na})
	if err != nil {
		return models.Author{}, err
	}
	return out[0], nil
}

func (c *Cached) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	err := c.Store.DeleteAuthor(ctx, id)
	if err == nil {
		c.bump(ctx)
	}
	return err
}

func (c *Cached) bump(ctx context.Context) {
	if err := c.cache.Bump(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn().Err(err).Msg("page cache invalidation failed")
	}
}

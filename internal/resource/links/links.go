// Package links builds the hypermedia link lists attached to shaped resources and
// page envelopes.
package links

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/resource/shape"
)

// Relations used for paging.
const (
	RelSelf     = "self"
	RelNext     = "nextPage"
	RelPrevious = "previousPage"
)

// Link is a navigable action on a resource.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Action is a supported operation. Path is a route template whose {name} segments
// are filled from an Identity.
type Action struct {
	Rel    string
	Method string
	Path   string
}

// Self is the GET action for a resource path.
func Self(path string) Action {
	return Action{Rel: RelSelf, Method: http.MethodGet, Path: path}
}

// Identity supplies values for the {name} segments of action paths.
type Identity map[string]any

// PageContext is the current collection request. Query holds every parameter that
// must be carried unchanged across page links (fields, orderBy, filters).
type PageContext struct {
	Path        string
	Query       url.Values
	PageNumber  int
	PageSize    int
	HasNext     bool
	HasPrevious bool
}

// NewPageContext describes page p of the collection at path.
func NewPageContext[T any](path string, query url.Values, p paging.Page[T]) PageContext {
	return PageContext{
		Path:        path,
		Query:       query,
		PageNumber:  p.CurrentPage(),
		PageSize:    p.PageSize(),
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
}

// Builder renders absolute hrefs against a base URL.
type Builder struct {
	base *url.URL
}

// NewBuilder parses base ("https://api.example.com"). Any path on base is kept as a prefix.
func NewBuilder(base string) (*Builder, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("links: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("links: base url %q must be absolute", base)
	}
	return &Builder{base: u}, nil
}

// FromRequest uses configured when set, else the scheme and host the request
// arrived on. X-Forwarded-Proto is honored only when trustForwarded is set.
func FromRequest(r *http.Request, configured string, trustForwarded bool) *Builder {
	if configured != "" {
		if b, err := NewBuilder(configured); err == nil {
			return b
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); trustForwarded && (p == "http" || p == "https") {
		scheme = p
	}
	return &Builder{base: &url.URL{Scheme: scheme, Host: r.Host}}
}

// ForCollection returns self, then nextPage and previousPage when they exist, then
// the supplied collection actions. Page links differ from self only in pageNumber.
func (b *Builder) ForCollection(pc PageContext, actions ...Action) ([]Link, error) {
	out := make([]Link, 0, 3+len(actions))
	out = append(out, Link{Href: b.PageHref(pc, 0), Rel: RelSelf, Method: http.MethodGet})
	if pc.HasNext {
		out = append(out, Link{Href: b.PageHref(pc, 1), Rel: RelNext, Method: http.MethodGet})
	}
	if pc.HasPrevious {
		out = append(out, Link{Href: b.PageHref(pc, -1), Rel: RelPrevious, Method: http.MethodGet})
	}
	for _, a := range actions {
		l, err := b.link(a, nil, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// ForItem returns one link per action in declared order. The self action carries
// the field list in effect so following it reproduces the same shape.
func (b *Builder) ForItem(id Identity, fields shape.FieldSet, actions ...Action) ([]Link, error) {
	out := make([]Link, 0, len(actions))
	for _, a := range actions {
		var q url.Values
		if a.Rel == RelSelf && !fields.Empty() {
			q = url.Values{"fields": {fields.String()}}
		}
		l, err := b.link(a, id, q)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// PageHref is the href of the page delta pages away from the current one.
func (b *Builder) PageHref(pc PageContext, delta int) string {
	q := url.Values{}
	for k, v := range pc.Query {
		if strings.EqualFold(k, paging.ParamPageNumber) || strings.EqualFold(k, paging.ParamPageSize) {
			continue
		}
		q[k] = append([]string(nil), v...)
	}
	q.Set(paging.ParamPageNumber, strconv.Itoa(pc.PageNumber+delta))
	q.Set(paging.ParamPageSize, strconv.Itoa(pc.PageSize))
	return b.href(pc.Path, q)
}

// Href resolves path against the base URL.
func (b *Builder) Href(path string) string {
	return b.href(path, nil)
}

func (b *Builder) link(a Action, id Identity, q url.Values) (Link, error) {
	path, err := Expand(a.Path, id)
	if err != nil {
		return Link{}, err
	}
	return Link{Href: b.href(path, q), Rel: a.Rel, Method: a.Method}, nil
}

func (b *Builder) href(path string, q url.Values) string {
	// path is already escaped by Expand.
	s := b.base.String() + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		s += "?" + q.Encode()
	}
	return s
}

// Expand fills the {name} segments of tmpl from id. An unfilled segment is a wiring
// error.
func Expand(tmpl string, id Identity) (string, error) {
	var sb strings.Builder
	rest := tmpl
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			return "", fmt.Errorf("%w: unterminated segment in %q", resource.ErrAttributeMissing, tmpl)
		}
		name := rest[i+1 : i+j]
		v, ok := id[name]
		if !ok {
			return "", fmt.Errorf("%w: no value for {%s} in %q", resource.ErrAttributeMissing, name, tmpl)
		}
		sb.WriteString(rest[:i])
		sb.WriteString(url.PathEscape(fmt.Sprint(v)))
		rest = rest[i+j+1:]
	}
}
